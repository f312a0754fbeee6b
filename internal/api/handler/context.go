package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/afaf/accounts/internal/core/domain"
)

// authContext returns the identity the Auth middleware attached to the
// request. A missing identity means the route was wired without Auth.
func authContext(c echo.Context) (domain.AuthContext, error) {
	ac, ok := domain.AuthContextFrom(c.Request().Context())
	if !ok {
		return domain.AuthContext{}, domain.AuthenticationError(domain.MsgMissingAuthHeader)
	}
	return ac, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.ValidationError("invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return domain.ValidationError(err.Error())
	}
	return nil
}
