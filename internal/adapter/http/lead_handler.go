package http

import (
	"net/http"
	"strconv"

	"prescreen-engine/internal/adapter/middleware"
	leadDomain "prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/usecase/lead"

	"github.com/labstack/echo/v4"
)

type LeadHandler struct{ uc *lead.Usecase }

func NewLeadHandler(uc *lead.Usecase) *LeadHandler { return &LeadHandler{uc: uc} }

func (h *LeadHandler) Create(c echo.Context) error {
	var req lead.CreateLeadInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LeadHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("lead_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LeadHandler) List(c echo.Context) error {
	f := leadDomain.ListFilter{
		Status:    leadDomain.Status(c.QueryParam("status")),
		Tier:      leadDomain.Tier(c.QueryParam("tier")),
		ProgramID: c.QueryParam("program_id"),
		Search:    c.QueryParam("q"),
		SortBy:    c.QueryParam("sort"),
		SortDesc:  c.QueryParam("order") == "desc",
		Page:      atoiDefault(c.QueryParam("page"), 1),
		PerPage:   atoiDefault(c.QueryParam("per_page"), 25),
	}
	if v := c.QueryParam("qualified"); v != "" {
		b := v == "true"
		f.Qualified = &b
	}
	if v := c.QueryParam("retry_queued"); v != "" {
		b := v == "true"
		f.RetryQueued = &b
	}
	out, err := h.uc.List(c.Request().Context(), f, c.QueryParam("batch_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LeadHandler) Update(c echo.Context) error {
	var req lead.UpdateLeadInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	dto, err := h.uc.Update(c.Request().Context(), c.Param("lead_id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LeadHandler) Dismiss(c echo.Context) error {
	dto, err := h.uc.Dismiss(c.Request().Context(), c.Param("lead_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LeadHandler) Restore(c echo.Context) error {
	dto, err := h.uc.Restore(c.Request().Context(), c.Param("lead_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type notesReq struct {
	Notes string `json:"notes" validate:"max=4000"`
}

func (h *LeadHandler) UpdateNotes(c echo.Context) error {
	var req notesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.UpdateNotes(c.Request().Context(), c.Param("lead_id"), req.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type decryptReq struct {
	Field string `json:"field" validate:"required,oneof=ssn dob"`
}

// Decrypt exposes one plaintext PII field to an admin. The value goes into
// the response body only; it is never persisted or logged.
func (h *LeadHandler) Decrypt(c echo.Context) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	var req decryptReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	plain, err := h.uc.Decrypt(c.Request().Context(), act, c.Param("lead_id"), req.Field)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"field": req.Field, "value": plain})
}

func (h *LeadHandler) UpdateFirmOffer(c echo.Context) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	var req lead.FirmOfferInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	dto, err := h.uc.UpdateFirmOffer(c.Request().Context(), act, c.Param("lead_id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LeadHandler) Stats(c echo.Context) error {
	dto, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
