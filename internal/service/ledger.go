package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ledger/internal/domain"
	"ledger/internal/domain/models"
	"ledger/internal/domain/repositories"
	"ledger/internal/uow"
)

// LedgerService coordinates users and orders. Every operation runs inside its
// own unit of work: repositories are built over the session's executor,
// registered as observers, and the session is committed on success. The
// deferred Close guarantees an implicit rollback on every early return.
type LedgerService struct {
	uow    *uow.UnitOfWork
	repos  repositories.Factory
	logger *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(u *uow.UnitOfWork, repos repositories.Factory, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		uow:    u,
		repos:  repos,
		logger: logger,
	}
}

// CreateUserRequest carries the fields for a new user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PlaceOrderRequest carries the fields for a new order.
type PlaceOrderRequest struct {
	UserID  string `json:"user_id"`
	Product string `json:"product"`
	Amount  int64  `json:"amount"`
}

// PlaceOrderForNewUserRequest creates a user and their first order atomically.
type PlaceOrderForNewUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Product  string `json:"product"`
	Amount   int64  `json:"amount"`
}

// CreateUser persists a new user in its own transaction.
func (s *LedgerService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	user := models.NewUser(req.Username, req.Email)
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	session, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	users := s.repos.Users(session.Executor())
	session.RegisterTransactionAware(users)

	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.finish(ctx, session, "create user"); err != nil {
		return nil, err
	}
	return user, nil
}

// PlaceOrder records an order for an existing user. The existence check and
// the insert share one transaction, so a user deleted concurrently cannot
// slip through.
func (s *LedgerService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", domain.ErrValidation)
	}

	order := models.NewOrder(userID, req.Product, req.Amount)
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	session, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	users := s.repos.Users(session.Executor())
	orders := s.repos.Orders(session.Executor())
	session.RegisterTransactionAware(users)
	session.RegisterTransactionAware(orders)

	if _, err := users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.finish(ctx, session, "place order"); err != nil {
		return nil, err
	}
	return order, nil
}

// PlaceOrderForNewUser creates a user and their first order in one
// transaction; neither row survives without the other.
func (s *LedgerService) PlaceOrderForNewUser(ctx context.Context, req *PlaceOrderForNewUserRequest) (*models.User, *models.Order, error) {
	user := models.NewUser(req.Username, req.Email)
	if err := user.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	order := models.NewOrder(user.ID, req.Product, req.Amount)
	if err := order.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	session, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer session.Close()

	users := s.repos.Users(session.Executor())
	orders := s.repos.Orders(session.Executor())
	session.RegisterTransactionAware(users)
	session.RegisterTransactionAware(orders)

	if err := users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	if err := orders.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	if err := s.finish(ctx, session, "place order for new user"); err != nil {
		return nil, nil, err
	}
	return user, order, nil
}

// GetUser fetches a user in a read-only session.
func (s *LedgerService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	session, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	user, err := s.repos.Users(session.Executor()).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Nothing was written; the deferred Close rolls the session back.
	return user, nil
}

// GetOrder fetches an order in a read-only session.
func (s *LedgerService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	session, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	order, err := s.repos.Orders(session.Executor()).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListUserOrders returns all orders for a user in a read-only session.
func (s *LedgerService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	session, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	exec := session.Executor()
	if _, err := s.repos.Users(exec).FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repos.Orders(exec).FindByUser(ctx, userID)
}

// finish commits the session. A NotificationError is downgraded to a warning:
// the write is durable, only an observer failed to react, and the caller
// should still receive their result.
func (s *LedgerService) finish(ctx context.Context, session *uow.Session, op string) error {
	err := session.Commit(ctx)
	if err == nil {
		return nil
	}
	var nerr *uow.NotificationError
	if errors.As(err, &nerr) {
		s.logger.Warn("committed, but observer notification failed",
			"op", op,
			"error", nerr,
		)
		return nil
	}
	return err
}
