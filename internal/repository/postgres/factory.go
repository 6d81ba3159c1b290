package postgres

import (
	"ledger/internal/domain/repositories"
	"ledger/internal/uow"
)

// RepositoryFactory builds session-bound repositories. Services call it once
// per unit of work with the session's executor.
type RepositoryFactory struct {
	config *RepositoryConfig
}

// NewRepositoryFactory creates a factory sharing one repository configuration.
func NewRepositoryFactory(config *RepositoryConfig) *RepositoryFactory {
	return &RepositoryFactory{config: config}
}

var _ repositories.Factory = (*RepositoryFactory)(nil)

func (f *RepositoryFactory) Users(db uow.DB) repositories.UserRepository {
	return NewUserRepository(db, f.config)
}

func (f *RepositoryFactory) Orders(db uow.DB) repositories.OrderRepository {
	return NewOrderRepository(db, f.config)
}
