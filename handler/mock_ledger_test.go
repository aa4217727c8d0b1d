package handler

import (
	"context"

	"core-ledger/ledger"
	"core-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockLedger provides a mock implementation of ledger.Ledger for testing.
type MockLedger struct {
	mock.Mock
}

var _ ledger.Ledger = (*MockLedger)(nil)

func (m *MockLedger) account(args mock.Arguments) (*model.Account, error) {
	acc, _ := args.Get(0).(*model.Account)
	return acc, args.Error(1)
}

func (m *MockLedger) loan(args mock.Arguments) (*model.Loan, error) {
	loan, _ := args.Get(0).(*model.Loan)
	return loan, args.Error(1)
}

func (m *MockLedger) payment(args mock.Arguments) (*model.LoanPayment, error) {
	p, _ := args.Get(0).(*model.LoanPayment)
	return p, args.Error(1)
}

func (m *MockLedger) OpenAccount(ctx context.Context, ownerID uuid.UUID, kind model.AccountKind) (*model.Account, error) {
	return m.account(m.Called(ctx, ownerID, kind))
}

func (m *MockLedger) FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return m.account(m.Called(ctx, id))
}

func (m *MockLedger) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*model.Account, error) {
	args := m.Called(ctx, ownerID)
	accounts, _ := args.Get(0).([]*model.Account)
	return accounts, args.Error(1)
}

func (m *MockLedger) CreateVault(ctx context.Context, name string) (*model.Vault, error) {
	args := m.Called(ctx, name)
	v, _ := args.Get(0).(*model.Vault)
	return v, args.Error(1)
}

func (m *MockLedger) FindVault(ctx context.Context, name string) (*model.Vault, error) {
	args := m.Called(ctx, name)
	v, _ := args.Get(0).(*model.Vault)
	return v, args.Error(1)
}

func (m *MockLedger) Deposit(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error) {
	return m.account(m.Called(ctx, accountID, vaultName, amount))
}

func (m *MockLedger) Withdraw(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error) {
	return m.account(m.Called(ctx, accountID, vaultName, amount))
}

func (m *MockLedger) SendFunds(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*model.AccountTransaction, error) {
	args := m.Called(ctx, senderID, receiverID, amount)
	tx, _ := args.Get(0).(*model.AccountTransaction)
	return tx, args.Error(1)
}

func (m *MockLedger) ReconcileAccount(ctx context.Context, accountID uuid.UUID) (*ledger.Reconciliation, error) {
	args := m.Called(ctx, accountID)
	rec, _ := args.Get(0).(*ledger.Reconciliation)
	return rec, args.Error(1)
}

func (m *MockLedger) IssueLoan(ctx context.Context, n model.NewLoan) (*model.Loan, error) {
	return m.loan(m.Called(ctx, n))
}

func (m *MockLedger) FindLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return m.loan(m.Called(ctx, id))
}

func (m *MockLedger) ActivateLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	return m.loan(m.Called(ctx, loanID))
}

func (m *MockLedger) DefaultLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	return m.loan(m.Called(ctx, loanID))
}

func (m *MockLedger) DisburseLoan(ctx context.Context, loanID, accountID uuid.UUID) (*model.Account, error) {
	return m.account(m.Called(ctx, loanID, accountID))
}

func (m *MockLedger) Accrue(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	return m.loan(m.Called(ctx, loanID))
}

func (m *MockLedger) GetOrCreateNextPayment(ctx context.Context, loanID uuid.UUID) (*model.LoanPayment, error) {
	return m.payment(m.Called(ctx, loanID))
}

func (m *MockLedger) ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]*model.LoanPayment, error) {
	args := m.Called(ctx, loanID)
	ps, _ := args.Get(0).([]*model.LoanPayment)
	return ps, args.Error(1)
}

func (m *MockLedger) FindLoanPayment(ctx context.Context, id uuid.UUID) (*model.LoanPayment, error) {
	return m.payment(m.Called(ctx, id))
}

func (m *MockLedger) PayLoanPaymentDue(ctx context.Context, paymentID, accountID uuid.UUID) (*model.LoanPayment, error) {
	return m.payment(m.Called(ctx, paymentID, accountID))
}
