package model

import (
	"fmt"
)

// AccountKind is the product type of an account.
type AccountKind uint8

const (
	Checking AccountKind = iota + 1
	Savings
)

var accountKindNames = map[AccountKind]string{
	Checking: "checking",
	Savings:  "savings",
}

func (k AccountKind) String() string {
	if s, ok := accountKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("AccountKind(%d)", uint8(k))
}

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	_, ok := accountKindNames[k]
	return ok
}

// ParseAccountKind parses the canonical name of an account kind.
func ParseAccountKind(s string) (AccountKind, error) {
	for k, name := range accountKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown account kind %q", s)
}

func (k AccountKind) MarshalText() ([]byte, error) {
	if _, ok := accountKindNames[k]; !ok {
		return nil, fmt.Errorf("invalid account kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *AccountKind) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// BankTransactionKind tells which way funds moved between an account and a vault.
type BankTransactionKind uint8

const (
	// Deposit moves funds from outside the bank into an account and vault.
	Deposit BankTransactionKind = iota + 1
	// Withdraw moves funds out of an account and vault.
	Withdraw
	// LoanPrincipal moves borrowed funds from a vault into the borrower's account.
	LoanPrincipal
	// PrincipalRepayment moves principal from an account back to a vault.
	PrincipalRepayment
	// InterestRepayment moves interest from an account to a vault.
	InterestRepayment
)

var bankTransactionKindNames = map[BankTransactionKind]string{
	Deposit:            "deposit",
	Withdraw:           "withdraw",
	LoanPrincipal:      "loan_principal",
	PrincipalRepayment: "principal_repayment",
	InterestRepayment:  "interest_repayment",
}

func (k BankTransactionKind) String() string {
	if s, ok := bankTransactionKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("BankTransactionKind(%d)", uint8(k))
}

// AccountSign is the sign with which a movement of this kind applies to the
// account side. The vault side always moves by the opposite sign.
func (k BankTransactionKind) AccountSign() int {
	switch k {
	case Deposit, LoanPrincipal:
		return 1
	case Withdraw, PrincipalRepayment, InterestRepayment:
		return -1
	}
	return 0
}

// ParseBankTransactionKind parses the canonical name of a bank transaction kind.
func ParseBankTransactionKind(s string) (BankTransactionKind, error) {
	for k, name := range bankTransactionKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown bank transaction kind %q", s)
}

func (k BankTransactionKind) MarshalText() ([]byte, error) {
	if _, ok := bankTransactionKindNames[k]; !ok {
		return nil, fmt.Errorf("invalid bank transaction kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *BankTransactionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseBankTransactionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// LoanState is the lifecycle state of a loan.
//
//	PendingApproval -> Active -> Paid
//	                          -> Default
type LoanState uint8

const (
	PendingApproval LoanState = iota + 1
	Active
	Paid
	Default
)

var loanStateNames = map[LoanState]string{
	PendingApproval: "pending_approval",
	Active:          "active",
	Paid:            "paid",
	Default:         "default",
}

func (s LoanState) String() string {
	if name, ok := loanStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("LoanState(%d)", uint8(s))
}

// CanTransition reports whether a loan may move from s to next.
func (s LoanState) CanTransition(next LoanState) bool {
	switch s {
	case PendingApproval:
		return next == Active
	case Active:
		return next == Paid || next == Default
	}
	return false
}

// ParseLoanState parses the canonical name of a loan state.
func ParseLoanState(s string) (LoanState, error) {
	for state, name := range loanStateNames {
		if name == s {
			return state, nil
		}
	}
	return 0, fmt.Errorf("unknown loan state %q", s)
}

func (s LoanState) MarshalText() ([]byte, error) {
	if _, ok := loanStateNames[s]; !ok {
		return nil, fmt.Errorf("invalid loan state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *LoanState) UnmarshalText(text []byte) error {
	parsed, err := ParseLoanState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
