package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// GatewayChecker reports bureau gateway reachability for the status route.
type GatewayChecker interface {
	Check(ctx context.Context) string
}

type Handler struct {
	gateway GatewayChecker
}

func NewHandler(gw GatewayChecker) *Handler { return &Handler{gateway: gw} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// GatewayStatus distinguishes "credentials never set" from "gateway down":
// the first is a setup problem, the second an outage.
func (h *Handler) GatewayStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return c.JSON(http.StatusOK, map[string]string{
		"gateway": h.gateway.Check(ctx),
	})
}
