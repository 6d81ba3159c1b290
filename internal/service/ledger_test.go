package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ledger/internal/domain"
	"ledger/internal/repository/postgres"
	"ledger/internal/uow"
)

var (
	svcOnce sync.Once
	svcPool *pgxpool.Pool
	svcErr  error
)

func newTestService(t *testing.T) (*LedgerService, *pgxpool.Pool, *postgres.TableNames) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	svcOnce.Do(func() {
		ctx := context.Background()
		_ = godotenv.Load()

		connStr := os.Getenv("TEST_DATABASE_URL")
		if connStr == "" {
			pgContainer, err := tcpostgres.Run(ctx,
				"postgres:16-alpine",
				tcpostgres.WithDatabase("test_db"),
				tcpostgres.WithUsername("postgres"),
				tcpostgres.WithPassword("postgres"),
				testcontainers.WithWaitStrategy(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(30*time.Second),
				),
			)
			if err != nil {
				svcErr = fmt.Errorf("start postgres container: %w", err)
				return
			}
			connStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
			if err != nil {
				svcErr = fmt.Errorf("container connection string: %w", err)
				return
			}
		}

		svcPool, svcErr = postgres.CreateConnectionPool(ctx, connStr)
	})
	require.NoError(t, svcErr)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tables := postgres.NewTableNames("svc_")
	require.NoError(t, postgres.EnsureSchema(context.Background(), svcPool, tables))
	_, err := svcPool.Exec(context.Background(),
		fmt.Sprintf("TRUNCATE %s, %s CASCADE", tables.Orders, tables.Users))
	require.NoError(t, err)

	repoConfig := &postgres.RepositoryConfig{Tables: tables, Logger: logger}
	svc := NewLedgerService(uow.New(svcPool, logger), postgres.NewRepositoryFactory(repoConfig), logger)
	return svc, svcPool, tables
}

func TestLedgerServiceCreateUserAndPlaceOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &CreateUserRequest{Username: "john_doe", Email: "john@example.com"})
	require.NoError(t, err)

	order, err := svc.PlaceOrder(ctx, &PlaceOrderRequest{UserID: user.ID.String(), Product: "Laptop", Amount: 120000})
	require.NoError(t, err)
	assert.Equal(t, user.ID, order.UserID)

	fetched, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", fetched.Product)

	orders, err := svc.ListUserOrders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestLedgerServicePlaceOrderUnknownUser(t *testing.T) {
	svc, pool, tables := newTestService(t)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, &PlaceOrderRequest{
		UserID:  "111e8400-e29b-41d4-a716-446655440000",
		Product: "Phone",
		Amount:  80000,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The failed unit of work left nothing behind.
	var count int64
	require.NoError(t, pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", tables.Orders)).Scan(&count))
	assert.Zero(t, count)
}

func TestLedgerServicePlaceOrderForNewUserIsAtomic(t *testing.T) {
	svc, pool, tables := newTestService(t)
	ctx := context.Background()

	user, order, err := svc.PlaceOrderForNewUser(ctx, &PlaceOrderForNewUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Product:  "Desk",
		Amount:   45000,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, order.UserID)

	var userCount, orderCount int64
	require.NoError(t, pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", tables.Users)).Scan(&userCount))
	require.NoError(t, pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", tables.Orders)).Scan(&orderCount))
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), orderCount)
}

func TestLedgerServiceValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, &CreateUserRequest{Username: "", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.PlaceOrder(ctx, &PlaceOrderRequest{UserID: "not-a-uuid", Product: "Pen", Amount: 100})
	assert.ErrorIs(t, err, domain.ErrValidation)

	user, err := svc.CreateUser(ctx, &CreateUserRequest{Username: "val_user", Email: "val@example.com"})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, &PlaceOrderRequest{UserID: user.ID.String(), Product: "Pen", Amount: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
