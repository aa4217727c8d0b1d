// storage/postgres.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Custom errors for the storage layer.
var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStateConflict     = errors.New("record is not in the expected state")
	ErrCorruptRow        = errors.New("unrecognized value in stored row")
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique constraint violation.
const uniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query can run
// either on its own or inside a unit of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the ledger's SQL against a DBTX. A Queries obtained inside
// WithTx is bound to that transaction.
type Queries struct {
	db DBTX
}

// PostgresStore owns the connection pool and opens units of work on it.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore, connects to the database, and initializes the schema.
// It retries the connection up to retries times, one second apart.
func NewPostgresStore(ctx context.Context, connString string, retries int) (*PostgresStore, error) {
	if retries < 1 {
		retries = 1
	}

	var pool *pgxpool.Pool
	var err error
	for i := 0; i < retries; i++ {
		pool, err = pgxpool.New(ctx, connString)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database after retries: %w", err)
	}

	return NewPostgresStoreFromPool(ctx, pool)
}

// NewPostgresStoreFromPool wraps an existing pool and initializes the schema.
func NewPostgresStoreFromPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	store := &PostgresStore{db: pool}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return store, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

// Queries returns a Queries running outside of any unit of work. Use it for reads.
func (s *PostgresStore) Queries() *Queries {
	return &Queries{db: s.db}
}

// WithTx runs fn inside a single database transaction. The transaction commits
// only when fn returns nil. Any error, or a panic raised by fn, rolls it back.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// Rollback is a no-op if the transaction has been committed. It also runs
	// while a panic unwinds.
	defer tx.Rollback(ctx)

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// initSchema creates the necessary tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS accounts (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL,
        kind TEXT NOT NULL,
        balance NUMERIC(19, 5) NOT NULL DEFAULT 0,
        opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        is_open BOOLEAN NOT NULL DEFAULT TRUE
    );
    CREATE INDEX IF NOT EXISTS accounts_owner_id_idx ON accounts (owner_id);

    CREATE TABLE IF NOT EXISTS vaults (
        name TEXT PRIMARY KEY,
        balance NUMERIC(19, 5) NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS bank_transactions (
        id UUID PRIMARY KEY,
        account_id UUID NOT NULL REFERENCES accounts (id),
        vault_name TEXT NOT NULL REFERENCES vaults (name),
        kind TEXT NOT NULL,
        amount NUMERIC(19, 5) NOT NULL CHECK (amount >= 0),
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS bank_transactions_account_id_idx ON bank_transactions (account_id);

    CREATE TABLE IF NOT EXISTS account_transactions (
        id UUID PRIMARY KEY,
        sender_account_id UUID NOT NULL REFERENCES accounts (id),
        receiver_account_id UUID NOT NULL REFERENCES accounts (id),
        amount NUMERIC(19, 5) NOT NULL CHECK (amount > 0),
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE TABLE IF NOT EXISTS loans (
        id UUID PRIMARY KEY,
        borrower_id UUID NOT NULL,
        vault_name TEXT NOT NULL REFERENCES vaults (name),
        orig_principal NUMERIC(19, 5) NOT NULL,
        balance NUMERIC(19, 5) NOT NULL,
        interest_rate INTEGER NOT NULL,
        issue_date DATE NOT NULL,
        maturity_date DATE NOT NULL,
        payment_frequency_months INTEGER NOT NULL,
        compound_frequency_months INTEGER NOT NULL,
        accrued_interest NUMERIC(19, 5) NOT NULL DEFAULT 0,
        capitalized_interest NUMERIC(19, 5) NOT NULL DEFAULT 0,
        state TEXT NOT NULL,
        disbursement_transaction_id UUID REFERENCES bank_transactions (id)
    );

    CREATE TABLE IF NOT EXISTS loan_payments (
        id UUID PRIMARY KEY,
        loan_id UUID NOT NULL REFERENCES loans (id),
        principal_due NUMERIC(19, 5) NOT NULL,
        interest_due NUMERIC(19, 5) NOT NULL,
        due_date DATE NOT NULL,
        principal_transaction_id UUID REFERENCES bank_transactions (id),
        interest_transaction_id UUID REFERENCES bank_transactions (id),
        CHECK ((principal_transaction_id IS NULL) = (interest_transaction_id IS NULL))
    );
    CREATE INDEX IF NOT EXISTS loan_payments_loan_id_idx ON loan_payments (loan_id, due_date);`
	_, err := s.db.Exec(ctx, query)
	return err
}

// mapError translates driver errors into the storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.ConstraintName)
	}
	return err
}
