package handler

import (
	"net/http"

	"core-ledger/ledger"
	"core-ledger/model"
)

// TransactionHandler holds dependencies for account-to-account transfers.
type TransactionHandler struct {
	ledger ledger.Ledger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(l ledger.Ledger) *TransactionHandler {
	return &TransactionHandler{ledger: l}
}

// CreateTransferHandler moves funds between two accounts atomically.
//
// Method: POST
// Path: /transfers
// Success: 201 Created with the recorded account transaction
// Error: 400 Bad Request (for invalid JSON or validation failure)
// Error: 404 Not Found (if either account does not exist)
// Error: 422 Unprocessable Entity (for insufficient funds)
// Error: 500 Internal Server Error (for database errors)
func (h *TransactionHandler) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	// Validation
	if req.SenderAccountID == req.ReceiverAccountID {
		http.Error(w, "Sender and receiver accounts cannot be the same", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		http.Error(w, "Transfer amount must be positive", http.StatusBadRequest)
		return
	}

	transfer, err := h.ledger.SendFunds(r.Context(), req.SenderAccountID, req.ReceiverAccountID, req.Amount)
	if err != nil {
		writeError(w, err, "process transfer")
		return
	}
	writeJSON(w, http.StatusCreated, transfer)
}
