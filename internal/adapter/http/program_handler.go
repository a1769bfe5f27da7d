package http

import (
	"errors"
	"net/http"

	"prescreen-engine/internal/bureau"
	"prescreen-engine/internal/usecase/program"

	"github.com/labstack/echo/v4"
)

type ProgramHandler struct{ uc *program.Usecase }

func NewProgramHandler(uc *program.Usecase) *ProgramHandler { return &ProgramHandler{uc: uc} }

func (h *ProgramHandler) List(c echo.Context) error {
	rows, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"programs": rows})
}

// Sync refreshes the local program mirror from the bureau gateway.
func (h *ProgramHandler) Sync(c echo.Context) error {
	n, err := h.uc.Sync(c.Request().Context())
	if err != nil {
		switch {
		case errors.Is(err, bureau.ErrNotConfigured):
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "bureau gateway is not configured"})
		case errors.Is(err, bureau.ErrGatewayUnavailable), errors.Is(err, bureau.ErrGatewayTimeout):
			return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "bureau gateway is unreachable"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"synced": n})
}
