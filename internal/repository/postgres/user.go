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

// UserRepository implements repositories.UserRepository on top of a session
// executor. It stages every row it writes and reconciles that staging area
// when the session finalizes: OnCommit promotes staged rows into a local
// cache of durable rows, OnRollback discards them.
type UserRepository struct {
	db     uow.DB
	tables *TableNames
	logger *slog.Logger

	mu     sync.Mutex
	staged map[uuid.UUID]*models.User
	cache  map[uuid.UUID]*models.User
}

// NewUserRepository creates a user repository bound to one session executor.
func NewUserRepository(db uow.DB, config *RepositoryConfig) *UserRepository {
	return &UserRepository{
		db:     db,
		tables: config.Tables,
		logger: config.Logger,
		staged: make(map[uuid.UUID]*models.User),
		cache:  make(map[uuid.UUID]*models.User),
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// Create inserts a user inside the session's transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, email)
		VALUES ($1, $2, $3)
	`, r.tables.Users)

	if _, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email); err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user %s already exists", user.ID),
				ResourceType: "user",
				ResourceID:   user.ID.String(),
			}
		}
		return fmt.Errorf("create user: %w", err)
	}

	r.mu.Lock()
	r.staged[user.ID] = user
	r.mu.Unlock()
	return nil
}

// FindByID retrieves a user by ID within the session's transaction.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email
		FROM %s
		WHERE id = $1
	`, r.tables.Users)

	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", id)}
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &user, nil
}

// Count returns the number of users visible to the session's transaction.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Users)

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Cached returns a user from the durable cache: rows this repository wrote in
// a transaction that has since committed.
func (r *UserRepository) Cached(id uuid.UUID) (*models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.cache[id]
	return user, ok
}

// OnCommit promotes staged rows into the durable cache.
func (r *UserRepository) OnCommit(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, user := range r.staged {
		r.cache[id] = user
	}
	r.staged = make(map[uuid.UUID]*models.User)
	return nil
}

// OnRollback discards staged rows; the transaction that wrote them is gone.
func (r *UserRepository) OnRollback(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.staged) > 0 && r.logger != nil {
		r.logger.Debug("discarding staged users after rollback", "count", len(r.staged))
	}
	r.staged = make(map[uuid.UUID]*models.User)
	return nil
}
