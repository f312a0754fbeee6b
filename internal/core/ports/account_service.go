package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/afaf/accounts/internal/core/domain"
)

// RegisterInput is an already-validated registration request. An empty Role
// means the default role.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AdminCreateInput is RegisterInput with a mandatory role.
type AdminCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

type ChangePasswordInput struct {
	AccountID       uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	Token   string                `json:"token"`
	Account *domain.PublicAccount `json:"user"`
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Profile(ctx context.Context, id uuid.UUID) (*domain.PublicAccount, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	AdminCreate(ctx context.Context, requester domain.Role, in AdminCreateInput) (*domain.PublicAccount, error)
	ChangeRole(ctx context.Context, requester domain.Role, id uuid.UUID, role string) (*domain.PublicAccount, error)
	List(ctx context.Context, requester domain.Role, limit, offset int) ([]*domain.PublicAccount, error)
}
