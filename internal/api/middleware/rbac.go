package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/afaf/accounts/internal/api/metrics"
	"github.com/afaf/accounts/internal/core/domain"
)

// RequireRole admits requests whose authenticated role ranks at or above
// required. It must run after Auth.
func RequireRole(required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac, ok := domain.AuthContextFrom(c.Request().Context())
			if !ok {
				return domain.AuthenticationError(domain.MsgMissingAuthHeader)
			}
			if err := domain.CheckRole(ac.Role, required); err != nil {
				metrics.AuthorizationDeniedTotal.WithLabelValues(required.String()).Inc()
				return err
			}
			return next(c)
		}
	}
}
