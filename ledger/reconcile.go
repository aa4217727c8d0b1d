package ledger

import (
	"context"

	"core-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reconciliation compares an account's stored balance with the balance
// rebuilt from its transaction logs.
type Reconciliation struct {
	AccountID uuid.UUID       `json:"account_id"`
	Stored    decimal.Decimal `json:"stored"`
	Replayed  decimal.Decimal `json:"replayed"`
	Records   int             `json:"records"`
}

// Balanced reports whether the logs account for the whole stored balance.
func (r *Reconciliation) Balanced() bool {
	return r.Stored.Equal(r.Replayed)
}

// ReconcileAccount replays every bank and account transaction that touched
// the account. The account row is locked while the logs are read, so no
// movement can land between the two reads.
func (s *Service) ReconcileAccount(ctx context.Context, accountID uuid.UUID) (*Reconciliation, error) {
	var rec *Reconciliation
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		bankTxs, err := q.ListBankTransactions(ctx, accountID)
		if err != nil {
			return err
		}
		transfers, err := q.ListAccountTransactions(ctx, accountID)
		if err != nil {
			return err
		}

		replayed := decimal.Zero
		for _, t := range bankTxs {
			replayed = replayed.Add(t.Amount.Mul(decimal.NewFromInt(int64(t.Kind.AccountSign()))))
		}
		for _, t := range transfers {
			if t.ReceiverAccountID == accountID {
				replayed = replayed.Add(t.Amount)
			}
			if t.SenderAccountID == accountID {
				replayed = replayed.Sub(t.Amount)
			}
		}

		rec = &Reconciliation{
			AccountID: accountID,
			Stored:    account.Balance,
			Replayed:  replayed,
			Records:   len(bankTxs) + len(transfers),
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}
