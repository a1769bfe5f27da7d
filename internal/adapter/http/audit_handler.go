package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"prescreen-engine/internal/adapter/middleware"
	"prescreen-engine/internal/usecase/auditlog"
)

type AuditHandler struct {
	uc *auditlog.Usecase
}

func NewAuditHandler(uc *auditlog.Usecase) *AuditHandler { return &AuditHandler{uc: uc} }

func (h *AuditHandler) List(c echo.Context) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	in := auditlog.ListInput{
		Action:  c.QueryParam("action"),
		LeadID:  c.QueryParam("lead_id"),
		ActorID: c.QueryParam("actor_id"),
		Page:    atoiDefault(c.QueryParam("page"), 1),
		PerPage: atoiDefault(c.QueryParam("per_page"), 20),
	}
	out, err := h.uc.List(c.Request().Context(), act, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
