package repositories

import (
	"context"

	"github.com/google/uuid"

	"ledger/internal/domain/models"
	"ledger/internal/uow"
)

// Factory builds repositories bound to one transaction session's executor.
type Factory interface {
	Users(db uow.DB) UserRepository
	Orders(db uow.DB) OrderRepository
}

// UserRepository provides access to users. Implementations are bound to one
// transaction session and participate in its outcome as observers.
type UserRepository interface {
	uow.TransactionAware

	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// OrderRepository provides access to orders. Implementations are bound to one
// transaction session and participate in its outcome as observers.
type OrderRepository interface {
	uow.TransactionAware

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	Count(ctx context.Context) (int64, error)
}
