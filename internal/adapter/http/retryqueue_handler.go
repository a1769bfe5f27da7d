package http

import (
	"net/http"

	"prescreen-engine/internal/adapter/middleware"
	"prescreen-engine/internal/usecase/lead"
	"prescreen-engine/internal/usecase/retryqueue"

	"github.com/labstack/echo/v4"
)

type RetryQueueHandler struct {
	uc    *retryqueue.Usecase
	leads *lead.Usecase
}

func NewRetryQueueHandler(uc *retryqueue.Usecase, leads *lead.Usecase) *RetryQueueHandler {
	return &RetryQueueHandler{uc: uc, leads: leads}
}

func (h *RetryQueueHandler) List(c echo.Context) error {
	rows, err := h.uc.ListQueued(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]map[string]any, 0, len(rows))
	for _, l := range rows {
		out = append(out, map[string]any{
			"lead_id":       l.LeadID,
			"last_name":     l.LastName,
			"first_name":    l.FirstName,
			"match_status":  l.MatchStatus,
			"error_message": l.ErrorMessage,
			"program_id":    l.ProgramID,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"leads": out, "total": len(out)})
}

type queueToggleReq struct {
	LeadIDs []string `json:"lead_ids" validate:"required,min=1,dive,hex32"`
}

func (h *RetryQueueHandler) Enqueue(c echo.Context) error {
	return h.toggle(c, true)
}

func (h *RetryQueueHandler) Dequeue(c echo.Context) error {
	return h.toggle(c, false)
}

func (h *RetryQueueHandler) toggle(c echo.Context, queued bool) error {
	act, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	var req queueToggleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	var (
		n   int64
		err error
	)
	if queued {
		n, err = h.uc.Enqueue(c.Request().Context(), act, req.LeadIDs)
	} else {
		n, err = h.uc.Dequeue(c.Request().Context(), act, req.LeadIDs)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}
