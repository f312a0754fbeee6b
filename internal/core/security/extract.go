package security

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/afaf/accounts/internal/core/domain"
)

const bearerPrefix = "Bearer "

// ExtractAuthContext resolves the caller's identity from request headers.
// It only parses and verifies; no store is consulted.
func ExtractAuthContext(header http.Header, tokens *TokenService) (domain.AuthContext, error) {
	raw := header.Get("Authorization")
	if raw == "" {
		return domain.AuthContext{}, domain.AuthenticationError(domain.MsgMissingAuthHeader)
	}
	if !strings.HasPrefix(raw, bearerPrefix) {
		return domain.AuthContext{}, domain.AuthenticationError(domain.MsgInvalidAuthFormat)
	}

	claims, err := tokens.Verify(raw[len(bearerPrefix):])
	if err != nil {
		return domain.AuthContext{}, err
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.AuthContext{}, domain.AuthenticationError(domain.MsgInvalidRoleInToken)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.AuthContext{}, domain.AuthenticationError(domain.MsgInvalidUserIDInToken)
	}

	return domain.AuthContext{
		AccountID: id,
		Email:     claims.Email,
		Role:      role,
	}, nil
}
