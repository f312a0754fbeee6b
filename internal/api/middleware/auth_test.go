package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/security"
)

func newTokens(t *testing.T, now time.Time) *security.TokenService {
	t.Helper()
	svc, err := security.NewTokenService("secret", time.Hour, security.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return svc
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	now := time.Now()
	tokens := newTokens(t, now)
	id := uuid.New()
	token, err := tokens.Issue(id, "alice@x.com", domain.RoleAdmin, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(tokens)(func(c echo.Context) error {
		called = true
		ac, ok := domain.AuthContextFrom(c.Request().Context())
		if !ok {
			t.Fatalf("auth context not set")
		}
		if ac.AccountID != id || ac.Email != "alice@x.com" || ac.Role != domain.RoleAdmin {
			t.Fatalf("unexpected auth context: %+v", ac)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	now := time.Now()
	tokens := newTokens(t, now)
	expired, _ := tokens.Issue(uuid.New(), "a@x.com", domain.RoleUser, now.Add(-2*time.Hour))

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Token abc",
		"not a token":     "Bearer not-a-token",
		"expired token":   "Bearer " + expired,
		"lowercase token": "bearer abc",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			err := Auth(tokens)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})(c)

			if !errors.Is(err, domain.ErrAuthentication) {
				t.Fatalf("expected authentication error, got %v", err)
			}
		})
	}
}
