package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/afaf/accounts/internal/api/metrics"
	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/security"
)

// Auth verifies the bearer token and attaches the resulting identity to the
// request context. Nothing downstream runs when verification fails.
func Auth(tokens *security.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			ac, err := security.ExtractAuthContext(req.Header, tokens)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("rejected").Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.SetRequest(req.WithContext(domain.WithAuthContext(req.Context(), ac)))
			return next(c)
		}
	}
}
