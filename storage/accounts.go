package storage

import (
	"context"
	"errors"
	"fmt"

	"core-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = "id, owner_id, kind, balance, opened_at, is_open"

func scanAccount(row pgx.Row) (*model.Account, error) {
	var acc model.Account
	var kind string
	if err := row.Scan(&acc.ID, &acc.OwnerID, &kind, &acc.Balance, &acc.OpenedAt, &acc.IsOpen); err != nil {
		return nil, mapError(err)
	}
	k, err := model.ParseAccountKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", ErrCorruptRow, acc.ID, err)
	}
	acc.Kind = k
	return &acc, nil
}

// CreateAccount inserts a new open account with a zero balance.
func (q *Queries) CreateAccount(ctx context.Context, id, ownerID uuid.UUID, kind model.AccountKind) (*model.Account, error) {
	query := `
		INSERT INTO accounts (id, owner_id, kind)
		VALUES ($1, $2, $3)
		RETURNING ` + accountColumns
	return scanAccount(q.db.QueryRow(ctx, query, id, ownerID, kind.String()))
}

// FindAccount retrieves a single account by its ID.
func (q *Queries) FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = $1"
	return scanAccount(q.db.QueryRow(ctx, query, id))
}

// LockAccount retrieves an account and holds its row lock until the
// surrounding transaction ends.
func (q *Queries) LockAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = $1 FOR UPDATE"
	return scanAccount(q.db.QueryRow(ctx, query, id))
}

// LockAccounts locks every listed account in ascending id order, so two
// units of work locking the same pair can never deadlock.
func (q *Queries) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Account, error) {
	query := `
        SELECT ` + accountColumns + ` FROM accounts
        WHERE id = ANY($1)
        ORDER BY id FOR UPDATE`

	rows, err := q.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("could not query accounts for update: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]*model.Account, len(ids))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan account row: %w", err)
		}
		found[acc.ID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, id)
		}
	}
	return found, nil
}

// ListAccountsByOwner returns every account held by ownerID, oldest first.
func (q *Queries) ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE owner_id = $1 ORDER BY opened_at, id"
	rows, err := q.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// TransactAccount adds delta to the stored balance in a single statement and
// returns the updated account.
func (q *Queries) TransactAccount(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*model.Account, error) {
	query := `
		UPDATE accounts SET balance = balance + $1
		WHERE id = $2
		RETURNING ` + accountColumns
	return scanAccount(q.db.QueryRow(ctx, query, delta, id))
}

// IncrementAccount credits amount to the account.
func (q *Queries) IncrementAccount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	return q.TransactAccount(ctx, id, amount)
}

// DecrementAccount debits amount from the account without checking the
// resulting balance. Use DebitAccount when the balance must stay non-negative.
func (q *Queries) DecrementAccount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	return q.TransactAccount(ctx, id, amount.Neg())
}

// DebitAccount subtracts amount only if the balance covers it. The check and
// the write are one statement, so concurrent debits cannot overdraw.
func (q *Queries) DebitAccount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	query := `
		UPDATE accounts SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
		RETURNING ` + accountColumns
	acc, err := scanAccount(q.db.QueryRow(ctx, query, amount, id))
	if !errors.Is(err, ErrNotFound) {
		return acc, err
	}

	// No row matched: either the account is missing or the guard failed.
	if _, err := q.FindAccount(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInsufficientFunds
}
