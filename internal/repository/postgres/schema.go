package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the ledger tables if they do not exist. It is
// idempotent and runs at startup, outside any unit of work.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	usersDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL
		)
	`, tables.Users)

	ordersDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES %s(id),
			product VARCHAR(255) NOT NULL,
			amount BIGINT NOT NULL
		)
	`, tables.Orders, tables.Users)

	if _, err := pool.Exec(ctx, usersDDL); err != nil {
		return fmt.Errorf("create %s table: %w", tables.Users, err)
	}
	if _, err := pool.Exec(ctx, ordersDDL); err != nil {
		return fmt.Errorf("create %s table: %w", tables.Orders, err)
	}

	return nil
}
