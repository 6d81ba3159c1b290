package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"ledger/internal/domain"
	"ledger/internal/domain/models"
	"ledger/internal/domain/repositories"
	"ledger/internal/uow"
)

// OrderRepository implements repositories.OrderRepository on top of a session
// executor, with the same staging/reconciliation protocol as UserRepository.
type OrderRepository struct {
	db     uow.DB
	tables *TableNames
	logger *slog.Logger

	mu     sync.Mutex
	staged map[uuid.UUID]*models.Order
	cache  map[uuid.UUID]*models.Order
}

// NewOrderRepository creates an order repository bound to one session executor.
func NewOrderRepository(db uow.DB, config *RepositoryConfig) *OrderRepository {
	return &OrderRepository{
		db:     db,
		tables: config.Tables,
		logger: config.Logger,
		staged: make(map[uuid.UUID]*models.Order),
		cache:  make(map[uuid.UUID]*models.Order),
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Create inserts an order inside the session's transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, product, amount)
		VALUES ($1, $2, $3, $4)
	`, r.tables.Orders)

	if _, err := r.db.Exec(ctx, query, order.ID, order.UserID, order.Product, order.Amount); err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("order references user %s: %w", order.UserID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("order %s already exists", order.ID),
				ResourceType: "order",
				ResourceID:   order.ID.String(),
			}
		}
		return fmt.Errorf("create order: %w", err)
	}

	r.mu.Lock()
	r.staged[order.ID] = order
	r.mu.Unlock()
	return nil
}

// FindByID retrieves an order by ID within the session's transaction.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, product, amount
		FROM %s
		WHERE id = $1
	`, r.tables.Orders)

	var order models.Order
	err := r.db.QueryRow(ctx, query, id).Scan(&order.ID, &order.UserID, &order.Product, &order.Amount)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("order %s not found", id)}
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	return &order, nil
}

// FindByUser retrieves all orders for a user. Ordering is unspecified.
func (r *OrderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, product, amount
		FROM %s
		WHERE user_id = $1
	`, r.tables.Orders)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("find orders for user: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Product, &order.Amount); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// Count returns the number of orders visible to the session's transaction.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Orders)

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// Cached returns an order from the durable cache: rows this repository wrote
// in a transaction that has since committed.
func (r *OrderRepository) Cached(id uuid.UUID) (*models.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.cache[id]
	return order, ok
}

// OnCommit promotes staged rows into the durable cache.
func (r *OrderRepository) OnCommit(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, order := range r.staged {
		r.cache[id] = order
	}
	r.staged = make(map[uuid.UUID]*models.Order)
	return nil
}

// OnRollback discards staged rows; the transaction that wrote them is gone.
func (r *OrderRepository) OnRollback(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.staged) > 0 && r.logger != nil {
		r.logger.Debug("discarding staged orders after rollback", "count", len(r.staged))
	}
	r.staged = make(map[uuid.UUID]*models.Order)
	return nil
}
