package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/afaf/accounts/internal/core/domain"
)

// AccountRepository is the account store. Implementations enforce email
// uniqueness and report it as domain.ErrAccountExists; missing rows are
// domain.ErrAccountNotFound.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, updatedAt time.Time) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	Ping(ctx context.Context) error
}
