package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccountJSON tests JSON marshaling and unmarshaling for the Account struct.
func TestAccountJSON(t *testing.T) {
	t.Run("kind and balance keep their canonical form", func(t *testing.T) {
		// Arrange
		id := uuid.MustParse("6a0c2f5e-8f3b-4a47-9d0e-3f3f1f9c6b21")
		owner := uuid.MustParse("0d5e3c77-2e0b-4d6f-a8a1-1d4f8e2f0c11")
		original := Account{
			ID:       id,
			OwnerID:  owner,
			Kind:     Savings,
			Balance:  decimal.RequireFromString("1500.75"),
			OpenedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			IsOpen:   true,
		}

		// Act: Marshal
		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"kind":"savings"`)
		assert.Contains(t, string(data), `"balance":"1500.75"`)

		// Act: Unmarshal
		var decoded Account
		require.NoError(t, json.Unmarshal(data, &decoded))

		// Assert
		assert.Equal(t, original.ID, decoded.ID)
		assert.Equal(t, Savings, decoded.Kind)
		assert.True(t, original.Balance.Equal(decoded.Balance))
	})

	t.Run("unmarshal with unknown kind", func(t *testing.T) {
		var acc Account
		err := json.Unmarshal([]byte(`{"kind":"brokerage"}`), &acc)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown account kind "brokerage"`)
	})

	t.Run("unmarshal with invalid balance format", func(t *testing.T) {
		var acc Account
		err := json.Unmarshal([]byte(`{"balance":"not-a-number"}`), &acc)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't convert not-a-number to decimal")
	})
}

func TestEnumsRoundTrip(t *testing.T) {
	for _, k := range []AccountKind{Checking, Savings} {
		parsed, err := ParseAccountKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	for _, k := range []BankTransactionKind{Deposit, Withdraw, LoanPrincipal, PrincipalRepayment, InterestRepayment} {
		parsed, err := ParseBankTransactionKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	for _, s := range []LoanState{PendingApproval, Active, Paid, Default} {
		parsed, err := ParseLoanState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	assert.Equal(t, "principal_repayment", PrincipalRepayment.String())
	assert.Equal(t, "pending_approval", PendingApproval.String())

	_, err := ParseLoanState("Active")
	assert.Error(t, err, "parsing is case sensitive")
	_, err = ParseBankTransactionKind("")
	assert.Error(t, err)

	_, err = json.Marshal(LoanState(0))
	assert.Error(t, err, "the zero value is not a valid state")
}

func TestLoanStateTransitions(t *testing.T) {
	tests := []struct {
		from, to LoanState
		allowed  bool
	}{
		{PendingApproval, Active, true},
		{PendingApproval, Paid, false},
		{PendingApproval, Default, false},
		{Active, Paid, true},
		{Active, Default, true},
		{Active, PendingApproval, false},
		{Paid, Active, false},
		{Default, Active, false},
		{Paid, Default, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestBankTransactionKindAccountSign(t *testing.T) {
	assert.Equal(t, 1, Deposit.AccountSign())
	assert.Equal(t, 1, LoanPrincipal.AccountSign())
	assert.Equal(t, -1, Withdraw.AccountSign())
	assert.Equal(t, -1, PrincipalRepayment.AccountSign())
	assert.Equal(t, -1, InterestRepayment.AccountSign())
}

func TestRoundMoney(t *testing.T) {
	tests := map[string]string{
		"166.665":          "166.67",
		"166.664999":       "166.66",
		"1.6666666666":     "1.67",
		"0.005":            "0.01",
		"0.004":            "0",
		"1000":             "1000",
		"833.333333333333": "833.33",
	}
	for in, want := range tests {
		got := RoundMoney(decimal.RequireFromString(in))
		assert.True(t, decimal.RequireFromString(want).Equal(got), "RoundMoney(%s) = %s, want %s", in, got, want)
	}
}

func TestBasisPointsFraction(t *testing.T) {
	assert.Equal(t, "0.02", BasisPoints(200).Fraction().String())
	assert.Equal(t, "0.0001", BasisPoints(1).Fraction().String())
	assert.True(t, BasisPoints(0).Fraction().IsZero())
	assert.Equal(t, "1", BasisPoints(10000).Fraction().String())
}

func TestLoanPaymentIsPaid(t *testing.T) {
	p := LoanPayment{
		PrincipalDue: decimal.NewFromInt(100),
		InterestDue:  decimal.RequireFromString("1.25"),
	}
	assert.False(t, p.IsPaid())
	assert.Equal(t, "101.25", p.TotalDue().String())

	p.PrincipalTransactionID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	assert.False(t, p.IsPaid(), "one transaction id is not enough")

	p.InterestTransactionID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	assert.True(t, p.IsPaid())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		n    int
		want time.Time
	}{
		{"simple", date(2020, 1, 1), 1, date(2020, 2, 1)},
		{"across year", date(2020, 11, 15), 3, date(2021, 2, 15)},
		{"clamped to leap february", date(2020, 1, 31), 1, date(2020, 2, 29)},
		{"clamped to february", date(2021, 1, 31), 1, date(2021, 2, 28)},
		{"clamped to thirty days", date(2020, 3, 31), 1, date(2020, 4, 30)},
		{"zero", date(2020, 6, 10), 0, date(2020, 6, 10)},
		{"twelve", date(2020, 2, 29), 12, date(2021, 2, 28)},
		{"negative", date(2020, 3, 31), -1, date(2020, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.from, tt.n))
		})
	}
}

func TestMonthsUntil(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"six whole months", date(2020, 1, 1), date(2020, 7, 1), 6},
		{"one whole month", date(2020, 6, 1), date(2020, 7, 1), 1},
		{"partial month counts", date(2020, 6, 15), date(2020, 7, 1), 1},
		{"whole plus partial", date(2020, 1, 10), date(2020, 3, 15), 3},
		{"just under two", date(2020, 1, 15), date(2020, 3, 10), 2},
		{"same day", date(2020, 7, 1), date(2020, 7, 1), 0},
		{"past maturity", date(2020, 8, 1), date(2020, 7, 1), 0},
		{"time of day ignored", time.Date(2020, 1, 1, 23, 59, 0, 0, time.UTC), date(2020, 2, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsUntil(tt.from, tt.to))
		})
	}
}

func TestFitsStorage(t *testing.T) {
	assert.True(t, FitsStorage(decimal.RequireFromString("0.00001")))
	assert.True(t, FitsStorage(decimal.RequireFromString("1.100000")))
	assert.True(t, FitsStorage(decimal.NewFromInt(1000)))
	assert.False(t, FitsStorage(decimal.RequireFromString("0.000001")))
	assert.False(t, FitsStorage(decimal.RequireFromString("-2.123456")))
}
