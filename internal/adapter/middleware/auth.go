package middleware

import (
	"net/http"
	"strings"

	"prescreen-engine/internal/domain/actor"

	"github.com/labstack/echo/v4"
)

// Identity headers set by the upstream auth gate. The service never sees
// credentials; a request without these headers did not pass the gate.
const (
	HeaderUserID    = "X-Auth-User-Id"
	HeaderUserEmail = "X-Auth-User-Email"
	HeaderUserRole  = "X-Auth-User-Role"
)

const actorContextKey = "prescreen.actor"

// RequireIdentity rejects requests that did not come through the auth gate
// and stashes the caller identity in the echo context for handlers.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := strings.TrimSpace(req.Header.Get(HeaderUserID))
			role := strings.TrimSpace(req.Header.Get(HeaderUserRole))
			if id == "" || role == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			if role != actor.RoleAdmin && role != actor.RoleOperator {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown role"})
			}
			c.Set(actorContextKey, actor.Actor{
				ID:        id,
				Email:     strings.TrimSpace(req.Header.Get(HeaderUserEmail)),
				Role:      role,
				IP:        c.RealIP(),
				UserAgent: req.UserAgent(),
			})
			return next(c)
		}
	}
}

// RequireAdmin guards admin-only routes. It assumes RequireIdentity already
// ran; a missing actor is treated as unauthenticated, not forbidden.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := ActorFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			if !a.IsAdmin() {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "admin role required"})
			}
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated caller placed by RequireIdentity.
func ActorFrom(c echo.Context) (actor.Actor, bool) {
	a, ok := c.Get(actorContextKey).(actor.Actor)
	return a, ok
}
