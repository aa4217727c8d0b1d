// Package storagetest starts a throwaway PostgreSQL for integration tests.
package storagetest

import (
	"context"
	"fmt"
	"time"

	"core-ledger/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// tables lists every ledger table, children before parents.
const tables = "loan_payments, loans, account_transactions, bank_transactions, accounts, vaults"

// DB is a running test database with the ledger schema applied.
type DB struct {
	Store     *storage.PostgresStore
	Pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

// Start runs a postgres:14-alpine container and connects a store to it.
func Start(ctx context.Context) (*DB, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:14-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("could not start postgres container: %w", err)
	}

	db := &DB{container: pgContainer}
	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		db.Terminate(ctx)
		return nil, fmt.Errorf("could not get connection string: %w", err)
	}

	db.Pool, err = pgxpool.New(ctx, connString)
	if err != nil {
		db.Terminate(ctx)
		return nil, fmt.Errorf("could not connect to test database: %w", err)
	}

	db.Store, err = storage.NewPostgresStoreFromPool(ctx, db.Pool)
	if err != nil {
		db.Terminate(ctx)
		return nil, err
	}
	return db, nil
}

// Truncate empties every ledger table.
func (db *DB) Truncate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, "TRUNCATE TABLE "+tables+" RESTART IDENTITY")
	return err
}

// Terminate closes the pool and removes the container.
func (db *DB) Terminate(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	return db.container.Terminate(ctx)
}
