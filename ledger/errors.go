package ledger

import (
	"errors"
	"fmt"

	"core-ledger/storage"
)

// Errors returned by the Service. Match them with errors.Is; the storage
// cause, when there is one, stays in the chain.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInadequateFunds = errors.New("not enough funds in account")
	ErrInvalidDate     = errors.New("invalid date")
	ErrStorage         = errors.New("storage failure")

	ErrInvalidAmount = errors.New("amount must be positive with at most 5 decimal places")
	ErrSameAccount   = errors.New("sender and receiver are the same account")
	ErrInvalidState  = errors.New("loan is not in a valid state for this operation")
	ErrNotOwner      = errors.New("account does not belong to the borrower")
	ErrAlreadyPaid   = errors.New("loan payment is already paid")
	ErrInvalidLoan   = errors.New("invalid loan terms")
	ErrInvalidKind   = errors.New("unknown account kind")
)

// InvariantViolation is the panic value raised when a committed-looking
// state would break the ledger's conservation rules. It is never returned
// as an error.
type InvariantViolation struct {
	Msg string
}

func (v InvariantViolation) Error() string {
	return "ledger invariant violated: " + v.Msg
}

// storeError maps a storage error onto the service's taxonomy.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, storage.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInadequateFunds, err)
	case errors.Is(err, storage.ErrStateConflict):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case isLedgerError(err):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func isLedgerError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrAlreadyExists, ErrInadequateFunds, ErrInvalidDate, ErrStorage,
		ErrInvalidAmount, ErrSameAccount, ErrInvalidState, ErrNotOwner, ErrAlreadyPaid, ErrInvalidLoan, ErrInvalidKind,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
