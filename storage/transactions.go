package storage

import (
	"context"
	"fmt"

	"core-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const bankTransactionColumns = "id, account_id, vault_name, kind, amount, created_at"

func scanBankTransaction(row pgx.Row) (*model.BankTransaction, error) {
	var bt model.BankTransaction
	var kind string
	if err := row.Scan(&bt.ID, &bt.AccountID, &bt.VaultName, &kind, &bt.Amount, &bt.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	k, err := model.ParseBankTransactionKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: bank transaction %s: %v", ErrCorruptRow, bt.ID, err)
	}
	bt.Kind = k
	return &bt, nil
}

// CreateBankTransaction appends an account<->vault movement to the log.
func (q *Queries) CreateBankTransaction(ctx context.Context, id, accountID uuid.UUID, vaultName string, kind model.BankTransactionKind, amount decimal.Decimal) (*model.BankTransaction, error) {
	query := `
		INSERT INTO bank_transactions (id, account_id, vault_name, kind, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bankTransactionColumns
	return scanBankTransaction(q.db.QueryRow(ctx, query, id, accountID, vaultName, kind.String(), amount))
}

// ListBankTransactions returns every bank transaction touching the account, oldest first.
func (q *Queries) ListBankTransactions(ctx context.Context, accountID uuid.UUID) ([]*model.BankTransaction, error) {
	query := "SELECT " + bankTransactionColumns + " FROM bank_transactions WHERE account_id = $1 ORDER BY created_at, id"
	rows, err := q.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BankTransaction
	for rows.Next() {
		bt, err := scanBankTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}

const accountTransactionColumns = "id, sender_account_id, receiver_account_id, amount, created_at"

func scanAccountTransaction(row pgx.Row) (*model.AccountTransaction, error) {
	var at model.AccountTransaction
	if err := row.Scan(&at.ID, &at.SenderAccountID, &at.ReceiverAccountID, &at.Amount, &at.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &at, nil
}

// CreateAccountTransaction appends an account-to-account transfer to the log.
func (q *Queries) CreateAccountTransaction(ctx context.Context, id, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*model.AccountTransaction, error) {
	query := `
		INSERT INTO account_transactions (id, sender_account_id, receiver_account_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountTransactionColumns
	return scanAccountTransaction(q.db.QueryRow(ctx, query, id, senderID, receiverID, amount))
}

// ListAccountTransactions returns every transfer sent or received by the account, oldest first.
func (q *Queries) ListAccountTransactions(ctx context.Context, accountID uuid.UUID) ([]*model.AccountTransaction, error) {
	query := `
		SELECT ` + accountTransactionColumns + ` FROM account_transactions
		WHERE sender_account_id = $1 OR receiver_account_id = $1
		ORDER BY created_at, id`
	rows, err := q.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AccountTransaction
	for rows.Next() {
		at, err := scanAccountTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, rows.Err()
}
