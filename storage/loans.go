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

const loanColumns = `id, borrower_id, vault_name, orig_principal, balance, interest_rate,
	issue_date, maturity_date, payment_frequency_months, compound_frequency_months,
	accrued_interest, capitalized_interest, state, disbursement_transaction_id`

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var l model.Loan
	var state string
	err := row.Scan(&l.ID, &l.BorrowerID, &l.VaultName, &l.OrigPrincipal, &l.Balance, &l.InterestRate,
		&l.IssueDate, &l.MaturityDate, &l.PaymentFrequencyMonths, &l.CompoundFrequencyMonths,
		&l.AccruedInterest, &l.CapitalizedInterest, &state, &l.DisbursementTransactionID)
	if err != nil {
		return nil, mapError(err)
	}
	s, err := model.ParseLoanState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: loan %s: %v", ErrCorruptRow, l.ID, err)
	}
	l.State = s
	return &l, nil
}

// CreateLoan inserts a loan in the pending_approval state with its balance
// equal to the principal.
func (q *Queries) CreateLoan(ctx context.Context, id uuid.UUID, n model.NewLoan) (*model.Loan, error) {
	query := `
		INSERT INTO loans (id, borrower_id, vault_name, orig_principal, balance, interest_rate,
			issue_date, maturity_date, payment_frequency_months, compound_frequency_months, state)
		VALUES ($1, $2, $3, $4, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + loanColumns
	return scanLoan(q.db.QueryRow(ctx, query, id, n.BorrowerID, n.VaultName, n.Principal, int32(n.InterestRate),
		model.Date(n.IssueDate), model.Date(n.MaturityDate), n.PaymentFrequencyMonths, n.CompoundFrequencyMonths,
		model.PendingApproval.String()))
}

// FindLoan retrieves a loan by its ID.
func (q *Queries) FindLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return scanLoan(q.db.QueryRow(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = $1", id))
}

// LockLoan retrieves a loan and holds its row lock until the surrounding transaction ends.
func (q *Queries) LockLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return scanLoan(q.db.QueryRow(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = $1 FOR UPDATE", id))
}

// SetAccruedInterest replaces the loan's unconsumed accrual.
func (q *Queries) SetAccruedInterest(ctx context.Context, id uuid.UUID, accrued decimal.Decimal) (*model.Loan, error) {
	query := `
		UPDATE loans SET accrued_interest = $1
		WHERE id = $2
		RETURNING ` + loanColumns
	return scanLoan(q.db.QueryRow(ctx, query, accrued, id))
}

// SettleLoan applies a payment of total to the loan. Accrued interest is
// capitalized into the balance before the payment is subtracted, and the
// accrual is reset to zero, all in one statement.
func (q *Queries) SettleLoan(ctx context.Context, id uuid.UUID, total decimal.Decimal) (*model.Loan, error) {
	query := `
		UPDATE loans SET
			balance = balance + accrued_interest - $1,
			capitalized_interest = capitalized_interest + accrued_interest,
			accrued_interest = 0
		WHERE id = $2
		RETURNING ` + loanColumns
	return scanLoan(q.db.QueryRow(ctx, query, total, id))
}

// SetLoanState moves the loan from one state to another. It fails with
// ErrStateConflict when the move is not allowed by the loan state machine or
// when the loan exists but is not currently in from.
func (q *Queries) SetLoanState(ctx context.Context, id uuid.UUID, from, to model.LoanState) (*model.Loan, error) {
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: loan cannot move from %s to %s", ErrStateConflict, from, to)
	}

	query := `
		UPDATE loans SET state = $1
		WHERE id = $2 AND state = $3
		RETURNING ` + loanColumns
	loan, err := scanLoan(q.db.QueryRow(ctx, query, to.String(), id, from.String()))
	if !errors.Is(err, ErrNotFound) {
		return loan, err
	}

	current, err := q.FindLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: loan %s is %s, not %s", ErrStateConflict, id, current.State, from)
}

// SetLoanDisbursement records the bank transaction that paid out the loan's
// principal. A loan is disbursed at most once: a second call fails with
// ErrStateConflict.
func (q *Queries) SetLoanDisbursement(ctx context.Context, id, transactionID uuid.UUID) (*model.Loan, error) {
	query := `
		UPDATE loans SET disbursement_transaction_id = $1
		WHERE id = $2 AND disbursement_transaction_id IS NULL
		RETURNING ` + loanColumns
	loan, err := scanLoan(q.db.QueryRow(ctx, query, transactionID, id))
	if !errors.Is(err, ErrNotFound) {
		return loan, err
	}

	if _, err := q.FindLoan(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: loan %s is already disbursed", ErrStateConflict, id)
}
