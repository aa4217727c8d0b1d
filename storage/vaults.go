package storage

import (
	"context"

	"core-ledger/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func scanVault(row pgx.Row) (*model.Vault, error) {
	var v model.Vault
	if err := row.Scan(&v.Name, &v.Balance); err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

// CreateVault inserts a vault. Vault names are unique.
func (q *Queries) CreateVault(ctx context.Context, name string, initial decimal.Decimal) (*model.Vault, error) {
	query := `
		INSERT INTO vaults (name, balance)
		VALUES ($1, $2)
		RETURNING name, balance`
	return scanVault(q.db.QueryRow(ctx, query, name, initial))
}

// FindVault retrieves a vault by name.
func (q *Queries) FindVault(ctx context.Context, name string) (*model.Vault, error) {
	return scanVault(q.db.QueryRow(ctx, "SELECT name, balance FROM vaults WHERE name = $1", name))
}

// TransactVault adds delta to the vault's balance in a single statement.
func (q *Queries) TransactVault(ctx context.Context, name string, delta decimal.Decimal) (*model.Vault, error) {
	query := `
		UPDATE vaults SET balance = balance + $1
		WHERE name = $2
		RETURNING name, balance`
	return scanVault(q.db.QueryRow(ctx, query, delta, name))
}

// IncrementVault credits amount to the vault.
func (q *Queries) IncrementVault(ctx context.Context, name string, amount decimal.Decimal) (*model.Vault, error) {
	return q.TransactVault(ctx, name, amount)
}

// DecrementVault debits amount from the vault. Vault balances may go negative
// when the bank lends out more than it holds in that reserve.
func (q *Queries) DecrementVault(ctx context.Context, name string, amount decimal.Decimal) (*model.Vault, error) {
	return q.TransactVault(ctx, name, amount.Neg())
}
