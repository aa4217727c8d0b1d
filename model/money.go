package model

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits computed amounts are rounded to.
const MoneyScale int32 = 2

// StorageScale is the number of fractional digits a stored amount keeps.
const StorageScale int32 = 5

// FitsStorage reports whether d can be stored without losing digits.
func FitsStorage(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(StorageScale))
}

// RoundMoney rounds d to MoneyScale digits, half away from zero. For the
// non-negative amounts the ledger computes this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// BasisPoints is an interest rate in hundredths of a percent.
// 200 basis points is 2%.
type BasisPoints int32

// Fraction converts the rate to an exact decimal fraction (200 -> 0.02).
func (bp BasisPoints) Fraction() decimal.Decimal {
	return decimal.New(int64(bp), -4)
}
