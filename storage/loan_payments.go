package storage

import (
	"context"
	"time"

	"core-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const loanPaymentColumns = `id, loan_id, principal_due, interest_due, due_date,
	principal_transaction_id, interest_transaction_id`

func scanLoanPayment(row pgx.Row) (*model.LoanPayment, error) {
	var p model.LoanPayment
	err := row.Scan(&p.ID, &p.LoanID, &p.PrincipalDue, &p.InterestDue, &p.DueDate,
		&p.PrincipalTransactionID, &p.InterestTransactionID)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// CreateLoanPayment inserts an unpaid payment.
func (q *Queries) CreateLoanPayment(ctx context.Context, id, loanID uuid.UUID, principalDue, interestDue decimal.Decimal, dueDate time.Time) (*model.LoanPayment, error) {
	query := `
		INSERT INTO loan_payments (id, loan_id, principal_due, interest_due, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + loanPaymentColumns
	return scanLoanPayment(q.db.QueryRow(ctx, query, id, loanID, principalDue, interestDue, model.Date(dueDate)))
}

// FindLoanPayment retrieves a payment by its ID.
func (q *Queries) FindLoanPayment(ctx context.Context, id uuid.UUID) (*model.LoanPayment, error) {
	return scanLoanPayment(q.db.QueryRow(ctx, "SELECT "+loanPaymentColumns+" FROM loan_payments WHERE id = $1", id))
}

// LockLoanPayment retrieves a payment and holds its row lock until the surrounding transaction ends.
func (q *Queries) LockLoanPayment(ctx context.Context, id uuid.UUID) (*model.LoanPayment, error) {
	return scanLoanPayment(q.db.QueryRow(ctx, "SELECT "+loanPaymentColumns+" FROM loan_payments WHERE id = $1 FOR UPDATE", id))
}

// FindOpenLoanPayment returns the most recent unpaid payment of a loan.
func (q *Queries) FindOpenLoanPayment(ctx context.Context, loanID uuid.UUID) (*model.LoanPayment, error) {
	query := `
		SELECT ` + loanPaymentColumns + ` FROM loan_payments
		WHERE loan_id = $1 AND principal_transaction_id IS NULL
		ORDER BY due_date DESC
		LIMIT 1`
	return scanLoanPayment(q.db.QueryRow(ctx, query, loanID))
}

// FindLastPaidLoanPayment returns the paid payment with the latest due date.
func (q *Queries) FindLastPaidLoanPayment(ctx context.Context, loanID uuid.UUID) (*model.LoanPayment, error) {
	query := `
		SELECT ` + loanPaymentColumns + ` FROM loan_payments
		WHERE loan_id = $1 AND principal_transaction_id IS NOT NULL
		ORDER BY due_date DESC
		LIMIT 1`
	return scanLoanPayment(q.db.QueryRow(ctx, query, loanID))
}

// ListLoanPayments returns every payment of a loan in due date order.
func (q *Queries) ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]*model.LoanPayment, error) {
	query := "SELECT " + loanPaymentColumns + " FROM loan_payments WHERE loan_id = $1 ORDER BY due_date"
	rows, err := q.db.Query(ctx, query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.LoanPayment
	for rows.Next() {
		p, err := scanLoanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetLoanPaymentDues refreshes the amounts owed on an unpaid payment.
// Paid payments are left untouched and reported as ErrNotFound.
func (q *Queries) SetLoanPaymentDues(ctx context.Context, id uuid.UUID, principalDue, interestDue decimal.Decimal) (*model.LoanPayment, error) {
	query := `
		UPDATE loan_payments SET principal_due = $1, interest_due = $2
		WHERE id = $3 AND principal_transaction_id IS NULL
		RETURNING ` + loanPaymentColumns
	return scanLoanPayment(q.db.QueryRow(ctx, query, principalDue, interestDue, id))
}

// SetLoanPaymentTransactions stamps a payment with the ids of the bank
// transactions that settled it. Both ids are written together.
func (q *Queries) SetLoanPaymentTransactions(ctx context.Context, id, principalTxID, interestTxID uuid.UUID) (*model.LoanPayment, error) {
	query := `
		UPDATE loan_payments SET principal_transaction_id = $1, interest_transaction_id = $2
		WHERE id = $3 AND principal_transaction_id IS NULL
		RETURNING ` + loanPaymentColumns
	return scanLoanPayment(q.db.QueryRow(ctx, query, principalTxID, interestTxID, id))
}
