package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	dbOnce   sync.Once
	dbPool   *pgxpool.Pool
	dbTables *TableNames
	dbErr    error
)

// setupDB returns a shared pool against a disposable Postgres. A
// TEST_DATABASE_URL environment variable (or one from .env) bypasses the
// container and targets an existing server instead.
func setupDB(t *testing.T) (*pgxpool.Pool, *TableNames) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbOnce.Do(func() {
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
				dbErr = fmt.Errorf("start postgres container: %w", err)
				return
			}
			connStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
			if err != nil {
				dbErr = fmt.Errorf("container connection string: %w", err)
				return
			}
		}

		pool, err := CreateConnectionPool(ctx, connStr)
		if err != nil {
			dbErr = fmt.Errorf("connect: %w", err)
			return
		}

		tables := NewTableNames("test_")
		if err := EnsureSchema(ctx, pool, tables); err != nil {
			dbErr = fmt.Errorf("ensure schema: %w", err)
			return
		}

		dbPool = pool
		dbTables = tables
	})

	require.NoError(t, dbErr)
	return dbPool, dbTables
}

// truncateTables gives each test a clean slate.
func truncateTables(t *testing.T, pool *pgxpool.Pool, tables *TableNames) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		fmt.Sprintf("TRUNCATE %s, %s CASCADE", tables.Orders, tables.Users))
	require.NoError(t, err)
}
