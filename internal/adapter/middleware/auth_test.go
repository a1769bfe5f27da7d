package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prescreen-engine/internal/domain/actor"

	"github.com/labstack/echo/v4"
)

func authEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	grp := e.Group("", RequireIdentity())
	grp.GET("/leads", func(c echo.Context) error {
		a, _ := ActorFrom(c)
		return c.JSON(http.StatusOK, map[string]string{"actor": a.ID, "role": a.Role})
	})
	grp.POST("/leads/:id/decrypt", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
	}, RequireAdmin())
	return e
}

func TestRequireIdentity_MissingHeaders(t *testing.T) {
	e := authEcho()

	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no identity => want 401, got %d", rec.Code)
	}

	// role alone is not enough
	req = httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set(HeaderUserRole, actor.RoleAdmin)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing user id => want 401, got %d", rec.Code)
	}
}

func TestRequireIdentity_UnknownRole(t *testing.T) {
	e := authEcho()

	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderUserRole, "superuser")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown role => want 401, got %d", rec.Code)
	}
}

func TestRequireIdentity_PopulatesActor(t *testing.T) {
	e := authEcho()

	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderUserEmail, "u1@example.com")
	req.Header.Set(HeaderUserRole, actor.RoleOperator)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid identity => want 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); !strings.Contains(body, `"actor":"u-1"`) {
		t.Fatalf("actor not propagated: %s", body)
	}
}

func TestRequireAdmin(t *testing.T) {
	e := authEcho()

	// operator hits an admin route
	req := httptest.NewRequest(http.MethodPost, "/leads/1/decrypt", nil)
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderUserRole, actor.RoleOperator)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("operator on admin route => want 403, got %d", rec.Code)
	}

	// admin passes
	req = httptest.NewRequest(http.MethodPost, "/leads/1/decrypt", nil)
	req.Header.Set(HeaderUserID, "adm-1")
	req.Header.Set(HeaderUserRole, actor.RoleAdmin)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin on admin route => want 200, got %d", rec.Code)
	}
}
