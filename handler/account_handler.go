package handler

import (
	"context"
	"net/http"

	"core-ledger/ledger"
	"core-ledger/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// AccountHandler holds dependencies for account and vault handlers.
type AccountHandler struct {
	ledger ledger.Ledger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(l ledger.Ledger) *AccountHandler {
	return &AccountHandler{ledger: l}
}

// CreateAccountHandler opens an empty account.
// It expects a JSON body with "owner_id" and an optional "kind".
//
// Method: POST
// Path: /accounts
// Success: 201 Created
// Error: 400 Bad Request (for invalid JSON or validation failure)
// Error: 500 Internal Server Error (for database errors)
func (h *AccountHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req model.OpenAccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := h.ledger.OpenAccount(r.Context(), req.OwnerID, req.Kind)
	if err != nil {
		writeError(w, err, "open account")
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns an account and its balance.
//
// Method: GET
// Path: /accounts/{account_id}
// Success: 200 OK
// Error: 400 Bad Request (for invalid account ID format)
// Error: 404 Not Found (if account does not exist)
func (h *AccountHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r, "account_id")
	if !ok {
		return
	}

	account, err := h.ledger.FindAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err, "retrieve account")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListAccountsHandler returns every account held by an owner.
//
// Method: GET
// Path: /owners/{owner_id}/accounts
// Success: 200 OK with a possibly empty list
func (h *AccountHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := pathID(w, r, "owner_id")
	if !ok {
		return
	}

	accounts, err := h.ledger.ListAccounts(r.Context(), ownerID)
	if err != nil {
		writeError(w, err, "list accounts")
		return
	}
	if accounts == nil {
		accounts = []*model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// DepositHandler moves funds from a vault into the account.
//
// Method: POST
// Path: /accounts/{account_id}/deposits
// Success: 200 OK with the updated account
// Error: 400 Bad Request (for invalid JSON or a non-positive amount)
// Error: 404 Not Found (if the account or vault does not exist)
func (h *AccountHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "deposit", h.ledger.Deposit)
}

// WithdrawHandler moves funds out of the account and its vault.
//
// Method: POST
// Path: /accounts/{account_id}/withdrawals
// Success: 200 OK with the updated account
// Error: 422 Unprocessable Entity (for insufficient funds)
func (h *AccountHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "withdraw", h.ledger.Withdraw)
}

type movementFunc func(ctx context.Context, accountID uuid.UUID, vaultName string, amount decimal.Decimal) (*model.Account, error)

func (h *AccountHandler) movement(w http.ResponseWriter, r *http.Request, action string, move movementFunc) {
	accountID, ok := pathID(w, r, "account_id")
	if !ok {
		return
	}
	var req model.MovementRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := move(r.Context(), accountID, req.VaultName, req.Amount)
	if err != nil {
		writeError(w, err, action)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ReconcileHandler compares the stored balance with the replayed transaction logs.
//
// Method: GET
// Path: /accounts/{account_id}/reconciliation
// Success: 200 OK with {"stored", "replayed", "records", "balanced"}
func (h *AccountHandler) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r, "account_id")
	if !ok {
		return
	}

	rec, err := h.ledger.ReconcileAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err, "reconcile account")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*ledger.Reconciliation
		Balanced bool `json:"balanced"`
	}{rec, rec.Balanced()})
}

// CreateVaultHandler creates an empty vault.
//
// Method: POST
// Path: /vaults
// Success: 201 Created
// Error: 409 Conflict (if the vault already exists)
func (h *AccountHandler) CreateVaultHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateVaultRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	vault, err := h.ledger.CreateVault(r.Context(), req.Name)
	if err != nil {
		writeError(w, err, "create vault")
		return
	}
	writeJSON(w, http.StatusCreated, vault)
}

// GetVaultHandler returns a vault and its balance.
//
// Method: GET
// Path: /vaults/{name}
func (h *AccountHandler) GetVaultHandler(w http.ResponseWriter, r *http.Request) {
	vault, err := h.ledger.FindVault(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err, "retrieve vault")
		return
	}
	writeJSON(w, http.StatusOK, vault)
}
