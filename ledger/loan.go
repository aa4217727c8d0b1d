package ledger

import (
	"fmt"
	"time"

	"core-ledger/model"

	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// Accrual returns the interest owed on the loan's current balance for one
// payment period: balance × rate × paymentFrequencyMonths / 12, rounded once
// with model.RoundMoney. Payment frequencies divide 12, so this is the same
// as dividing the yearly interest by the number of periods in a year.
func Accrual(loan *model.Loan) decimal.Decimal {
	freq := decimal.NewFromInt(int64(loan.PaymentFrequencyMonths))
	return model.RoundMoney(loan.Balance.
		Mul(loan.InterestRate.Fraction()).
		Mul(freq).
		Div(monthsPerYear))
}

// PrincipalDue returns the principal installment owed at currentDate:
// balance / monthsRemaining × paymentFrequencyMonths, rounded once with
// model.RoundMoney.
//
// The installment is recomputed from the current balance and the current
// time to maturity on every cycle, so irregular payments shrink later
// installments instead of following a schedule fixed at issuance. At or
// past maturity the whole balance is due, and the installment never
// exceeds the balance.
func PrincipalDue(loan *model.Loan, currentDate time.Time) decimal.Decimal {
	months := model.MonthsUntil(currentDate, loan.MaturityDate)
	if months < 1 {
		months = 1
	}
	freq := decimal.NewFromInt(int64(loan.PaymentFrequencyMonths))
	due := model.RoundMoney(loan.Balance.Mul(freq).Div(decimal.NewFromInt(int64(months))))
	if due.GreaterThan(loan.Balance) {
		return loan.Balance
	}
	return due
}

// NextDueDate returns the due date of the payment following lastPaid, or of
// the first payment when lastPaid is nil. It fails with ErrInvalidDate when
// that date falls after the loan's maturity.
func NextDueDate(loan *model.Loan, lastPaid *model.LoanPayment) (time.Time, error) {
	base := loan.IssueDate
	if lastPaid != nil {
		base = lastPaid.DueDate
	}
	due := model.AddMonths(base, loan.PaymentFrequencyMonths)
	if due.After(model.Date(loan.MaturityDate)) {
		return time.Time{}, fmt.Errorf("%w: due date (%s) exceeds maturity date (%s)",
			ErrInvalidDate, due.Format(time.DateOnly), loan.MaturityDate.Format(time.DateOnly))
	}
	return due, nil
}

func validateNewLoan(n model.NewLoan) error {
	switch {
	case !n.Principal.IsPositive() || !model.FitsStorage(n.Principal):
		return fmt.Errorf("%w: principal must be positive with at most %d decimal places", ErrInvalidLoan, model.StorageScale)
	case n.VaultName == "":
		return fmt.Errorf("%w: vault name is required", ErrInvalidLoan)
	case n.InterestRate < 0:
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidLoan)
	case n.PaymentFrequencyMonths < 1 || 12%n.PaymentFrequencyMonths != 0:
		return fmt.Errorf("%w: payment frequency must be 1, 2, 3, 4, 6 or 12 months", ErrInvalidLoan)
	case n.CompoundFrequencyMonths < 1 || n.CompoundFrequencyMonths > 12:
		return fmt.Errorf("%w: compound frequency must be 1 to 12 months", ErrInvalidLoan)
	case !model.Date(n.MaturityDate).After(model.Date(n.IssueDate)):
		return fmt.Errorf("%w: maturity date must be after issue date", ErrInvalidLoan)
	case model.AddMonths(n.IssueDate, n.PaymentFrequencyMonths).After(model.Date(n.MaturityDate)):
		return fmt.Errorf("%w: term is shorter than one payment period", ErrInvalidLoan)
	}
	return nil
}
