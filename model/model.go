// Package model defines the data structures used by the ledger.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Every monetary value in this package is a decimal.Decimal from
// "github.com/shopspring/decimal". float64 cannot represent most decimal
// fractions exactly (0.1 + 0.2 != 0.3), and those errors add up across
// repeated interest and installment calculations, so balances, amounts and
// dues never go through binary floating point.

// Account is a user-held monetary account.
type Account struct {
	ID       uuid.UUID       `json:"id"`
	OwnerID  uuid.UUID       `json:"owner_id"`
	Kind     AccountKind     `json:"kind"`
	Balance  decimal.Decimal `json:"balance"`
	OpenedAt time.Time       `json:"opened_at"`
	IsOpen   bool            `json:"is_open"`
}

// Vault is a bank-held reserve pool keyed by name.
type Vault struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// BankTransaction records one movement between an account and a vault.
// Amount is always positive; the direction is implied by Kind.
type BankTransaction struct {
	ID        uuid.UUID           `json:"id"`
	AccountID uuid.UUID           `json:"account_id"`
	VaultName string              `json:"vault_name"`
	Kind      BankTransactionKind `json:"kind"`
	Amount    decimal.Decimal     `json:"amount"`
	CreatedAt time.Time           `json:"created_at"`
}

// AccountTransaction records an account-to-account transfer.
type AccountTransaction struct {
	ID                uuid.UUID       `json:"id"`
	SenderAccountID   uuid.UUID       `json:"sender_account_id"`
	ReceiverAccountID uuid.UUID       `json:"receiver_account_id"`
	Amount            decimal.Decimal `json:"amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Loan holds the fixed terms of a loan and its running balance.
//
// Balance is the original principal plus capitalized interest minus every
// payment made so far. It is never negative.
type Loan struct {
	ID                      uuid.UUID       `json:"id"`
	BorrowerID              uuid.UUID       `json:"borrower_id"`
	VaultName               string          `json:"vault_name"`
	OrigPrincipal           decimal.Decimal `json:"orig_principal"`
	Balance                 decimal.Decimal `json:"balance"`
	InterestRate            BasisPoints     `json:"interest_rate"`
	IssueDate               time.Time       `json:"issue_date"`
	MaturityDate            time.Time       `json:"maturity_date"`
	PaymentFrequencyMonths  int             `json:"payment_frequency_months"`
	CompoundFrequencyMonths int             `json:"compound_frequency_months"`
	AccruedInterest         decimal.Decimal `json:"accrued_interest"`
	CapitalizedInterest     decimal.Decimal `json:"capitalized_interest"`
	State                   LoanState       `json:"state"`
	// DisbursementTransactionID is the loan_principal bank transaction that
	// paid the principal out. It is unset until the loan is disbursed.
	DisbursementTransactionID uuid.NullUUID `json:"disbursement_transaction_id"`
}

// LoanPayment is one scheduled payment on a loan. It is paid once both
// transaction ids are set.
type LoanPayment struct {
	ID                     uuid.UUID       `json:"id"`
	LoanID                 uuid.UUID       `json:"loan_id"`
	PrincipalDue           decimal.Decimal `json:"principal_due"`
	InterestDue            decimal.Decimal `json:"interest_due"`
	DueDate                time.Time       `json:"due_date"`
	PrincipalTransactionID uuid.NullUUID   `json:"principal_transaction_id"`
	InterestTransactionID  uuid.NullUUID   `json:"interest_transaction_id"`
}

// IsPaid reports whether the payment has been settled.
func (p *LoanPayment) IsPaid() bool {
	return p.PrincipalTransactionID.Valid && p.InterestTransactionID.Valid
}

// TotalDue is the amount settling this payment moves out of the paying account.
func (p *LoanPayment) TotalDue() decimal.Decimal {
	return p.PrincipalDue.Add(p.InterestDue)
}

// NewLoan carries the terms of a loan at issuance.
type NewLoan struct {
	BorrowerID              uuid.UUID
	VaultName               string
	Principal               decimal.Decimal
	InterestRate            BasisPoints
	IssueDate               time.Time
	MaturityDate            time.Time
	PaymentFrequencyMonths  int
	CompoundFrequencyMonths int
}

// IssueLoanRequest defines the expected JSON body for issuing a loan.
// Dates use the YYYY-MM-DD layout.
type IssueLoanRequest struct {
	BorrowerID              uuid.UUID       `json:"borrower_id" validate:"required"`
	VaultName               string          `json:"vault_name" validate:"required,max=64"`
	Principal               decimal.Decimal `json:"principal"`
	InterestRate            BasisPoints     `json:"interest_rate" validate:"gte=0,lte=100000"`
	IssueDate               string          `json:"issue_date" validate:"required,datetime=2006-01-02"`
	MaturityDate            string          `json:"maturity_date" validate:"required,datetime=2006-01-02"`
	PaymentFrequencyMonths  int             `json:"payment_frequency_months" validate:"oneof=1 2 3 4 6 12"`
	CompoundFrequencyMonths int             `json:"compound_frequency_months" validate:"gte=1,lte=12"`
}

// OpenAccountRequest defines the expected JSON body for opening an account.
type OpenAccountRequest struct {
	OwnerID uuid.UUID   `json:"owner_id" validate:"required"`
	Kind    AccountKind `json:"kind"`
}

// CreateVaultRequest defines the expected JSON body for creating a vault.
type CreateVaultRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// MovementRequest defines the expected JSON body for a deposit or withdrawal.
type MovementRequest struct {
	VaultName string          `json:"vault_name" validate:"required,max=64"`
	Amount    decimal.Decimal `json:"amount"`
}

// TransferRequest defines the expected JSON body for an account-to-account transfer.
type TransferRequest struct {
	SenderAccountID   uuid.UUID       `json:"sender_account_id" validate:"required"`
	ReceiverAccountID uuid.UUID       `json:"receiver_account_id" validate:"required"`
	Amount            decimal.Decimal `json:"amount"`
}

// AccountRequest names the account used to disburse into or pay from.
type AccountRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
}
