package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/ports"
)

// AccountHandler serves account listing.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// List handles GET /users.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (default 20, max 100)"
// @Param        offset  query     int  false  "Number of accounts to skip"
// @Success      200     {object}  Response{data=[]domain.PublicAccount}
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Router       /users [get]
func (h *AccountHandler) List(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}

	var limit, offset int
	if err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		BindError(); err != nil {
		return domain.ValidationError("limit and offset must be integers")
	}

	accounts, err := h.accounts.List(c.Request().Context(), ac.Role, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(accounts, ""))
}
