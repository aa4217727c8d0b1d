package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"core-ledger/model"
	"core-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store opens units of work. *storage.PostgresStore satisfies it.
type Store interface {
	WithTx(ctx context.Context, fn func(q *storage.Queries) error) error
	Queries() *storage.Queries
}

// Ledger is the set of operations the HTTP layer drives. *Service implements it.
type Ledger interface {
	OpenAccount(ctx context.Context, ownerID uuid.UUID, kind model.AccountKind) (*model.Account, error)
	FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*model.Account, error)
	CreateVault(ctx context.Context, name string) (*model.Vault, error)
	FindVault(ctx context.Context, name string) (*model.Vault, error)

	Deposit(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error)
	SendFunds(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*model.AccountTransaction, error)
	ReconcileAccount(ctx context.Context, accountID uuid.UUID) (*Reconciliation, error)

	IssueLoan(ctx context.Context, n model.NewLoan) (*model.Loan, error)
	FindLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	ActivateLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)
	DefaultLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)
	DisburseLoan(ctx context.Context, loanID, accountID uuid.UUID) (*model.Account, error)
	Accrue(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)
	GetOrCreateNextPayment(ctx context.Context, loanID uuid.UUID) (*model.LoanPayment, error)
	ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]*model.LoanPayment, error)
	FindLoanPayment(ctx context.Context, id uuid.UUID) (*model.LoanPayment, error)
	PayLoanPaymentDue(ctx context.Context, paymentID, accountID uuid.UUID) (*model.LoanPayment, error)
}

// Service moves money between accounts and vaults and runs the loan cycle.
// Every mutating operation is a single unit of work: it either commits all
// of its writes or none of them.
//
// Row locks are always taken in the same order: loan payment, loan,
// accounts by ascending id, vault.
type Service struct {
	store    Store
	calendar Calendar
	audit    AuditLogger
	newID    func() uuid.UUID
}

type Option func(*Service)

// WithAuditLogger sends an AuditEvent for every committed mutation to a.
func WithAuditLogger(a AuditLogger) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// NewService creates a Service. A nil calendar means SystemCalendar.
func NewService(store Store, calendar Calendar, opts ...Option) *Service {
	if calendar == nil {
		calendar = SystemCalendar{}
	}
	s := &Service{
		store:    store,
		calendar: calendar,
		audit:    nopAuditLogger{},
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Ledger = (*Service)(nil)

// checkAmount rejects amounts that are not positive or that the ledger
// columns would round.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !model.FitsStorage(amount) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return nil
}

// OpenAccount opens an empty account for ownerID. The zero kind opens a
// checking account.
func (s *Service) OpenAccount(ctx context.Context, ownerID uuid.UUID, kind model.AccountKind) (*model.Account, error) {
	if kind == 0 {
		kind = model.Checking
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}
	account, err := s.store.Queries().CreateAccount(ctx, s.newID(), ownerID, kind)
	if err != nil {
		return nil, storeError(err)
	}
	s.audit.Record(AuditEvent{Operation: "open_account", AccountID: account.ID,
		Details: map[string]string{"owner_id": ownerID.String(), "kind": kind.String()}})
	return account, nil
}

func (s *Service) FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.store.Queries().FindAccount(ctx, id)
	return account, storeError(err)
}

// ListAccounts returns every account held by ownerID, oldest first.
func (s *Service) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*model.Account, error) {
	accounts, err := s.store.Queries().ListAccountsByOwner(ctx, ownerID)
	return accounts, storeError(err)
}

// CreateVault creates an empty vault.
func (s *Service) CreateVault(ctx context.Context, name string) (*model.Vault, error) {
	vault, err := s.store.Queries().CreateVault(ctx, name, decimal.Zero)
	return vault, storeError(err)
}

func (s *Service) FindVault(ctx context.Context, name string) (*model.Vault, error) {
	vault, err := s.store.Queries().FindVault(ctx, name)
	return vault, storeError(err)
}

// Deposit moves amount from the vault into the account.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	var account *model.Account
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if account, err = q.IncrementAccount(ctx, accountID, amount); err != nil {
			return err
		}
		if _, err = q.IncrementVault(ctx, vaultName, amount); err != nil {
			return err
		}
		_, err = q.CreateBankTransaction(ctx, s.newID(), accountID, vaultName, model.Deposit, amount)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "deposit", AccountID: accountID, Amount: amount,
		Details: map[string]string{"vault": vaultName}})
	return account, nil
}

// Withdraw moves amount out of the account and the vault. The balance check
// and the debit are one conditional update, so concurrent withdrawals can
// never take the account below zero.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	var account *model.Account
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if account, err = q.DebitAccount(ctx, accountID, amount); err != nil {
			return err
		}
		if _, err = q.DecrementVault(ctx, vaultName, amount); err != nil {
			return err
		}
		_, err = q.CreateBankTransaction(ctx, s.newID(), accountID, vaultName, model.Withdraw, amount)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "withdraw", AccountID: accountID, Amount: amount,
		Details: map[string]string{"vault": vaultName}})
	return account, nil
}

// SendFunds moves amount from one account to another.
func (s *Service) SendFunds(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*model.AccountTransaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, ErrSameAccount
	}

	var transfer *model.AccountTransaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		// Lock both rows in a consistent order to avoid deadlocks between
		// transfers running in opposite directions.
		accounts, err := q.LockAccounts(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		sender := accounts[senderID]
		if sender.Balance.LessThan(amount) {
			return fmt.Errorf("%w: account %s has %s, needs %s", ErrInadequateFunds, senderID, sender.Balance, amount)
		}

		if _, err = q.DecrementAccount(ctx, senderID, amount); err != nil {
			return err
		}
		if _, err = q.IncrementAccount(ctx, receiverID, amount); err != nil {
			return err
		}
		transfer, err = q.CreateAccountTransaction(ctx, s.newID(), senderID, receiverID, amount)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "send_funds", AccountID: senderID, Amount: amount,
		Details: map[string]string{"receiver_account_id": receiverID.String(), "transaction_id": transfer.ID.String()}})
	return transfer, nil
}

// IssueLoan records a new loan in the pending_approval state. The vault that
// funds it must already exist.
func (s *Service) IssueLoan(ctx context.Context, n model.NewLoan) (*model.Loan, error) {
	if err := validateNewLoan(n); err != nil {
		return nil, err
	}

	var loan *model.Loan
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.FindVault(ctx, n.VaultName); err != nil {
			return err
		}
		var err error
		loan, err = q.CreateLoan(ctx, s.newID(), n)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "issue_loan", LoanID: loan.ID, Amount: loan.OrigPrincipal,
		Details: map[string]string{"borrower_id": loan.BorrowerID.String(), "vault": loan.VaultName}})
	return loan, nil
}

func (s *Service) FindLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	loan, err := s.store.Queries().FindLoan(ctx, id)
	return loan, storeError(err)
}

// ActivateLoan approves a pending loan and creates its first payment.
func (s *Service) ActivateLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	var loan *model.Loan
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if loan, err = q.SetLoanState(ctx, loanID, model.PendingApproval, model.Active); err != nil {
			return err
		}
		_, err = s.createNextPayment(ctx, q, loan)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "activate_loan", LoanID: loanID})
	return loan, nil
}

// DefaultLoan marks an active loan as defaulted. Deciding when a loan is in
// default is left to the caller.
func (s *Service) DefaultLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	loan, err := s.store.Queries().SetLoanState(ctx, loanID, model.Active, model.Default)
	if err != nil {
		return nil, storeError(err)
	}
	s.audit.Record(AuditEvent{Operation: "default_loan", LoanID: loanID, Amount: loan.Balance})
	return loan, nil
}

// DisburseLoan pays the loan's principal out of its vault into one of the
// borrower's accounts. A loan can be disbursed once, and only while active.
func (s *Service) DisburseLoan(ctx context.Context, loanID, accountID uuid.UUID) (*model.Account, error) {
	var account *model.Account
	var amount decimal.Decimal
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		loan, err := q.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.State != model.Active {
			return fmt.Errorf("%w: loan %s is %s", ErrInvalidState, loanID, loan.State)
		}
		if loan.DisbursementTransactionID.Valid {
			return fmt.Errorf("%w: loan %s is already disbursed", ErrInvalidState, loanID)
		}

		owner, err := q.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if owner.OwnerID != loan.BorrowerID {
			return fmt.Errorf("%w: account %s, borrower %s", ErrNotOwner, accountID, loan.BorrowerID)
		}

		amount = loan.OrigPrincipal
		if account, err = q.IncrementAccount(ctx, accountID, amount); err != nil {
			return err
		}
		if _, err = q.DecrementVault(ctx, loan.VaultName, amount); err != nil {
			return err
		}
		record, err := q.CreateBankTransaction(ctx, s.newID(), accountID, loan.VaultName, model.LoanPrincipal, amount)
		if err != nil {
			return err
		}
		_, err = q.SetLoanDisbursement(ctx, loanID, record.ID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "disburse_loan", AccountID: accountID, LoanID: loanID, Amount: amount})
	return account, nil
}

// Accrue sets the loan's accrued interest for the current period. It
// replaces any earlier accrual, so calling it twice has the same effect as
// calling it once.
func (s *Service) Accrue(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	var loan *model.Loan
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if loan, err = q.LockLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.State != model.Active {
			return fmt.Errorf("%w: loan %s is %s", ErrInvalidState, loanID, loan.State)
		}
		loan, err = q.SetAccruedInterest(ctx, loanID, Accrual(loan))
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return loan, nil
}

// GetOrCreateNextPayment returns the loan's unpaid payment with its dues
// refreshed from the current balance, accrual and date. When every payment
// so far is settled it creates the next one.
func (s *Service) GetOrCreateNextPayment(ctx context.Context, loanID uuid.UUID) (*model.LoanPayment, error) {
	var payment *model.LoanPayment
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		loan, err := q.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.State != model.Active {
			return fmt.Errorf("%w: loan %s is %s", ErrInvalidState, loanID, loan.State)
		}

		open, err := q.FindOpenLoanPayment(ctx, loanID)
		switch {
		case err == nil:
			payment, err = q.SetLoanPaymentDues(ctx, open.ID, PrincipalDue(loan, s.calendar.CurrentDate()), loan.AccruedInterest)
			return err
		case errors.Is(err, storage.ErrNotFound):
			payment, err = s.createNextPayment(ctx, q, loan)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, storeError(err)
	}
	return payment, nil
}

func (s *Service) createNextPayment(ctx context.Context, q *storage.Queries, loan *model.Loan) (*model.LoanPayment, error) {
	lastPaid, err := q.FindLastPaidLoanPayment(ctx, loan.ID)
	if errors.Is(err, storage.ErrNotFound) {
		lastPaid, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	dueDate, err := NextDueDate(loan, lastPaid)
	if err != nil {
		return nil, err
	}
	return q.CreateLoanPayment(ctx, s.newID(), loan.ID,
		PrincipalDue(loan, s.calendar.CurrentDate()), loan.AccruedInterest, dueDate)
}

func (s *Service) ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]*model.LoanPayment, error) {
	q := s.store.Queries()
	if _, err := q.FindLoan(ctx, loanID); err != nil {
		return nil, storeError(err)
	}
	payments, err := q.ListLoanPayments(ctx, loanID)
	return payments, storeError(err)
}

func (s *Service) FindLoanPayment(ctx context.Context, id uuid.UUID) (*model.LoanPayment, error) {
	payment, err := s.store.Queries().FindLoanPayment(ctx, id)
	return payment, storeError(err)
}

// PayLoanPaymentDue settles a loan payment from accountID. The account pays
// principal and interest into the loan's vault, the accrued interest is
// capitalized and the payment subtracted from the loan balance. A loan paid
// down to zero moves to the paid state.
//
// A settlement that would leave the loan balance negative panics with
// InvariantViolation. The unit of work is rolled back as the panic unwinds.
func (s *Service) PayLoanPaymentDue(ctx context.Context, paymentID, accountID uuid.UUID) (*model.LoanPayment, error) {
	var payment *model.LoanPayment
	var loan *model.Loan
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if payment, err = q.LockLoanPayment(ctx, paymentID); err != nil {
			return err
		}
		if payment.IsPaid() {
			return fmt.Errorf("%w: payment %s", ErrAlreadyPaid, paymentID)
		}
		if loan, err = q.LockLoan(ctx, payment.LoanID); err != nil {
			return err
		}
		if loan.State != model.Active {
			return fmt.Errorf("%w: loan %s is %s", ErrInvalidState, loan.ID, loan.State)
		}

		total := payment.TotalDue()
		if _, err = q.DebitAccount(ctx, accountID, total); err != nil {
			return err
		}
		if _, err = q.IncrementVault(ctx, loan.VaultName, total); err != nil {
			return err
		}
		principalTx, err := q.CreateBankTransaction(ctx, s.newID(), accountID, loan.VaultName,
			model.PrincipalRepayment, payment.PrincipalDue)
		if err != nil {
			return err
		}
		interestTx, err := q.CreateBankTransaction(ctx, s.newID(), accountID, loan.VaultName,
			model.InterestRepayment, payment.InterestDue)
		if err != nil {
			return err
		}

		if loan, err = q.SettleLoan(ctx, loan.ID, total); err != nil {
			return err
		}
		if loan.Balance.IsNegative() {
			v := InvariantViolation{Msg: fmt.Sprintf("loan %s balance %s after payment %s", loan.ID, loan.Balance, paymentID)}
			log.Printf("ledger: %v", v)
			panic(v)
		}

		if payment, err = q.SetLoanPaymentTransactions(ctx, paymentID, principalTx.ID, interestTx.ID); err != nil {
			return err
		}
		if loan.Balance.IsZero() {
			loan, err = q.SetLoanState(ctx, loan.ID, model.Active, model.Paid)
		}
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.audit.Record(AuditEvent{Operation: "pay_loan_payment", AccountID: accountID, LoanID: loan.ID, Amount: payment.TotalDue(),
		Details: map[string]string{
			"payment_id":   paymentID.String(),
			"due_date":     payment.DueDate.Format(time.DateOnly),
			"loan_balance": loan.Balance.String(),
			"loan_state":   loan.State.String(),
		}})
	return payment, nil
}
