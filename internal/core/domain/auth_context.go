package domain

import (
	"context"

	"github.com/google/uuid"
)

// AuthContext is the identity established for a single request.
type AuthContext struct {
	AccountID uuid.UUID
	Email     string
	Role      Role
}

type authContextKey struct{}

// WithAuthContext returns a copy of ctx carrying ac.
func WithAuthContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// AuthContextFrom returns the identity attached by the auth middleware.
func AuthContextFrom(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey{}).(AuthContext)
	return ac, ok
}
