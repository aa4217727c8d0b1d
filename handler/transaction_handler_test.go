package handler

import (
	"net/http"
	"testing"

	"core-ledger/ledger"
	"core-ledger/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateTransferHandler(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	body := func(amount string) string {
		return `{"sender_account_id": "` + sender.String() + `", "receiver_account_id": "` + receiver.String() + `", "amount": "` + amount + `"}`
	}

	t.Run("success", func(t *testing.T) {
		m := &MockLedger{}
		m.On("SendFunds", mock.Anything, sender, receiver, amount("100")).
			Return(&model.AccountTransaction{ID: uuid.New(), SenderAccountID: sender, ReceiverAccountID: receiver}, nil)

		rr := serve(m, "POST", "/transfers", body("100"))

		assert.Equal(t, http.StatusCreated, rr.Code)
		m.AssertExpectations(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		m := &MockLedger{}
		m.On("SendFunds", mock.Anything, sender, receiver, amount("1000")).Return(nil, ledger.ErrInadequateFunds)

		rr := serve(m, "POST", "/transfers", body("1000"))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("account not found", func(t *testing.T) {
		m := &MockLedger{}
		m.On("SendFunds", mock.Anything, sender, receiver, amount("100")).Return(nil, ledger.ErrNotFound)

		rr := serve(m, "POST", "/transfers", body("100"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("same account", func(t *testing.T) {
		m := &MockLedger{}
		same := `{"sender_account_id": "` + sender.String() + `", "receiver_account_id": "` + sender.String() + `", "amount": "1"}`

		rr := serve(m, "POST", "/transfers", same)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		m.AssertNotCalled(t, "SendFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		m := &MockLedger{}

		rr := serve(m, "POST", "/transfers", body("-5"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		m.AssertNotCalled(t, "SendFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
