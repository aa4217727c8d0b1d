package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"core-ledger/model"
	"core-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLoan(balance string) *model.Loan {
	return &model.Loan{
		ID:                      uuid.New(),
		OrigPrincipal:           decimal.NewFromInt(1000),
		Balance:                 decimal.RequireFromString(balance),
		InterestRate:            200,
		IssueDate:               date(2020, 1, 1),
		MaturityDate:            date(2020, 7, 1),
		PaymentFrequencyMonths:  1,
		CompoundFrequencyMonths: 1,
		State:                   model.Active,
	}
}

func TestAccrual(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		rate    model.BasisPoints
		freq    int
		want    string
	}{
		{"monthly on 1000 at 2%", "1000", 200, 1, "1.67"},
		{"monthly on 833.33 at 2%", "833.33", 200, 1, "1.39"},
		{"quarterly on 1000 at 2%", "1000", 200, 3, "5"},
		{"zero rate", "1000", 0, 1, "0"},
		{"zero balance", "0", 200, 1, "0"},
		{"half cent rounds away from zero", "300", 2, 1, "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := testLoan(tt.balance)
			loan.InterestRate = tt.rate
			loan.PaymentFrequencyMonths = tt.freq
			got := Accrual(loan)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestAccrual_IsIdempotent(t *testing.T) {
	loan := testLoan("1000")
	first := Accrual(loan)
	loan.AccruedInterest = first
	assert.True(t, first.Equal(Accrual(loan)))
}

func TestPrincipalDue(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		now     time.Time
		want    string
	}{
		{"six months left", "1000", date(2020, 1, 1), "166.67"},
		{"five months left", "833.33", date(2020, 2, 1), "166.67"},
		{"half cent rounds up", "666.66", date(2020, 3, 1), "166.67"},
		{"three months left", "499.99", date(2020, 4, 1), "166.66"},
		{"last month", "166.66", date(2020, 6, 1), "166.66"},
		{"mid month counts as a whole month", "1000", date(2020, 6, 15), "1000"},
		{"at maturity the balance is due", "400", date(2020, 7, 1), "400"},
		{"past maturity the balance is due", "400", date(2021, 1, 1), "400"},
		{"zero balance", "0", date(2020, 1, 1), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrincipalDue(testLoan(tt.balance), tt.now)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	t.Run("never exceeds the balance", func(t *testing.T) {
		loan := testLoan("100")
		loan.PaymentFrequencyMonths = 3
		got := PrincipalDue(loan, date(2020, 6, 1))
		assert.True(t, loan.Balance.Equal(got), "got %s", got)
	})
}

func TestNextDueDate(t *testing.T) {
	loan := testLoan("1000")

	t.Run("first payment is one period after issue", func(t *testing.T) {
		got, err := NextDueDate(loan, nil)
		require.NoError(t, err)
		assert.Equal(t, date(2020, 2, 1), got)
	})

	t.Run("follows the last paid payment", func(t *testing.T) {
		got, err := NextDueDate(loan, &model.LoanPayment{DueDate: date(2020, 5, 1)})
		require.NoError(t, err)
		assert.Equal(t, date(2020, 6, 1), got)
	})

	t.Run("maturity itself is allowed", func(t *testing.T) {
		got, err := NextDueDate(loan, &model.LoanPayment{DueDate: date(2020, 6, 1)})
		require.NoError(t, err)
		assert.Equal(t, date(2020, 7, 1), got)
	})

	t.Run("past maturity fails", func(t *testing.T) {
		_, err := NextDueDate(loan, &model.LoanPayment{DueDate: date(2020, 7, 1)})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestValidateNewLoan(t *testing.T) {
	valid := model.NewLoan{
		BorrowerID:              uuid.New(),
		VaultName:               "main",
		Principal:               decimal.NewFromInt(1000),
		InterestRate:            200,
		IssueDate:               date(2020, 1, 1),
		MaturityDate:            date(2020, 7, 1),
		PaymentFrequencyMonths:  1,
		CompoundFrequencyMonths: 1,
	}
	require.NoError(t, validateNewLoan(valid))

	tests := []struct {
		name   string
		mutate func(n *model.NewLoan)
	}{
		{"zero principal", func(n *model.NewLoan) { n.Principal = decimal.Zero }},
		{"no vault", func(n *model.NewLoan) { n.VaultName = "" }},
		{"negative rate", func(n *model.NewLoan) { n.InterestRate = -1 }},
		{"zero payment frequency", func(n *model.NewLoan) { n.PaymentFrequencyMonths = 0 }},
		{"payment frequency not dividing a year", func(n *model.NewLoan) { n.PaymentFrequencyMonths = 5 }},
		{"payment frequency above a year", func(n *model.NewLoan) { n.PaymentFrequencyMonths = 24 }},
		{"principal below storage precision", func(n *model.NewLoan) { n.Principal = decimal.RequireFromString("1000.000001") }},
		{"compound frequency above a year", func(n *model.NewLoan) { n.CompoundFrequencyMonths = 13 }},
		{"maturity before issue", func(n *model.NewLoan) { n.MaturityDate = date(2019, 12, 1) }},
		{"term shorter than a period", func(n *model.NewLoan) { n.PaymentFrequencyMonths = 12 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			assert.ErrorIs(t, validateNewLoan(n), ErrInvalidLoan)
		})
	}
}

func TestCheckAmount(t *testing.T) {
	for _, ok := range []string{"1", "0.01", "0.00001", "123456.78901"} {
		assert.NoError(t, checkAmount(decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"0", "-1", "0.000001", "10.000005"} {
		assert.ErrorIs(t, checkAmount(decimal.RequireFromString(bad)), ErrInvalidAmount, bad)
	}
}

func TestAccrual_QuarterlyAndYearlyPeriods(t *testing.T) {
	loan := testLoan("1000")
	loan.InterestRate = 1000

	for freq, want := range map[int]string{2: "16.67", 4: "33.33", 6: "50", 12: "100"} {
		loan.PaymentFrequencyMonths = freq
		got := Accrual(loan)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "freq %d: got %s", freq, got)
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"not found", fmt.Errorf("%w: account", storage.ErrNotFound), ErrNotFound},
		{"duplicate", storage.ErrAlreadyExists, ErrAlreadyExists},
		{"insufficient funds", storage.ErrInsufficientFunds, ErrInadequateFunds},
		{"state conflict", storage.ErrStateConflict, ErrInvalidState},
		{"corrupt row", storage.ErrCorruptRow, ErrStorage},
		{"driver failure", errors.New("connection reset"), ErrStorage},
		{"ledger error passes through", ErrAlreadyPaid, ErrAlreadyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storeError(tt.in)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.in)
		})
	}

	assert.NoError(t, storeError(nil))
}

func TestFixedCalendar(t *testing.T) {
	cal := NewFixedCalendar(time.Date(2020, 1, 31, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, date(2020, 1, 31), cal.CurrentDate())

	cal.Advance(1)
	assert.Equal(t, date(2020, 2, 29), cal.CurrentDate())

	cal.Set(date(2021, 3, 1))
	assert.Equal(t, date(2021, 3, 1), cal.CurrentDate())
}

func TestLogAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	audit := LogAuditLogger{Logger: log.New(&buf, "", 0)}
	accountID := uuid.New()

	audit.Record(AuditEvent{Operation: "deposit", AccountID: accountID, Amount: decimal.NewFromInt(300)})

	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, "AUDIT: "), line)

	var got AuditEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "AUDIT: ")), &got))
	assert.Equal(t, "deposit", got.Operation)
	assert.Equal(t, accountID, got.AccountID)
	assert.True(t, decimal.NewFromInt(300).Equal(got.Amount))
	assert.False(t, got.Timestamp.IsZero())
}
