package http

import (
	"net/http"

	"prescreen-engine/internal/adapter/middleware"
	"prescreen-engine/internal/usecase/lead"
	"prescreen-engine/internal/usecase/prescreen"

	"github.com/labstack/echo/v4"
)

type BatchHandler struct {
	uc    *prescreen.Usecase
	leads *lead.Usecase
}

func NewBatchHandler(uc *prescreen.Usecase, leads *lead.Usecase) *BatchHandler {
	return &BatchHandler{uc: uc, leads: leads}
}

// Submit runs a full prescreen batch synchronously. A gateway outage still
// answers 201: the returned batch carries status failed and the reason.
func (h *BatchHandler) Submit(c echo.Context) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	var req prescreen.SubmitInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Submit(c.Request().Context(), act, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *BatchHandler) List(c echo.Context) error {
	page := atoiDefault(c.QueryParam("page"), 1)
	perPage := atoiDefault(c.QueryParam("per_page"), 25)
	rows, total, err := h.uc.List(c.Request().Context(), page, perPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"batches":  rows,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// Get returns the batch detail together with its leads. Viewing the leads
// of a batch is itself a sensitive read and lands in the audit trail.
func (h *BatchHandler) Get(c echo.Context) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("batch_id"))
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.leads.BatchResults(c.Request().Context(), act, c.Param("batch_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"batch": dto, "leads": res.Leads})
}

type renameReq struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *BatchHandler) Rename(c echo.Context) error {
	var req renameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Rename(c.Request().Context(), c.Param("batch_id"), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Recover reconciles a batch stranded in processing after a crash. Only
// leads without result rows are resubmitted.
func (h *BatchHandler) Recover(c echo.Context) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	dto, err := h.uc.Recover(c.Request().Context(), act, c.Param("batch_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
