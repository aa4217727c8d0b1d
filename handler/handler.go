package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"core-ledger/ledger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var validate = validator.New()

// NewRouter registers every ledger endpoint on a new router.
func NewRouter(l ledger.Ledger) *mux.Router {
	accounts := NewAccountHandler(l)
	transactions := NewTransactionHandler(l)
	loans := NewLoanHandler(l)

	r := mux.NewRouter()
	r.HandleFunc("/accounts", accounts.CreateAccountHandler).Methods("POST")
	r.HandleFunc("/accounts/{account_id}", accounts.GetAccountHandler).Methods("GET")
	r.HandleFunc("/accounts/{account_id}/deposits", accounts.DepositHandler).Methods("POST")
	r.HandleFunc("/accounts/{account_id}/withdrawals", accounts.WithdrawHandler).Methods("POST")
	r.HandleFunc("/accounts/{account_id}/reconciliation", accounts.ReconcileHandler).Methods("GET")
	r.HandleFunc("/owners/{owner_id}/accounts", accounts.ListAccountsHandler).Methods("GET")
	r.HandleFunc("/vaults", accounts.CreateVaultHandler).Methods("POST")
	r.HandleFunc("/vaults/{name}", accounts.GetVaultHandler).Methods("GET")

	r.HandleFunc("/transfers", transactions.CreateTransferHandler).Methods("POST")

	r.HandleFunc("/loans", loans.IssueLoanHandler).Methods("POST")
	r.HandleFunc("/loans/{loan_id}", loans.GetLoanHandler).Methods("GET")
	r.HandleFunc("/loans/{loan_id}/activate", loans.ActivateLoanHandler).Methods("POST")
	r.HandleFunc("/loans/{loan_id}/default", loans.DefaultLoanHandler).Methods("POST")
	r.HandleFunc("/loans/{loan_id}/disburse", loans.DisburseLoanHandler).Methods("POST")
	r.HandleFunc("/loans/{loan_id}/accrue", loans.AccrueHandler).Methods("POST")
	r.HandleFunc("/loans/{loan_id}/payments/next", loans.NextPaymentHandler).Methods("POST")
	r.HandleFunc("/loans/{loan_id}/payments", loans.ListPaymentsHandler).Methods("GET")
	r.HandleFunc("/loan-payments/{payment_id}", loans.GetPaymentHandler).Methods("GET")
	r.HandleFunc("/loan-payments/{payment_id}/pay", loans.PayPaymentHandler).Methods("POST")
	return r
}

// decodeRequest reads a JSON body into dst and runs its validate tags.
// It writes a 400 response and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the named path variable as a UUID. It writes a 400 response
// and returns false when the value is missing or malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		http.Error(w, name+" is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Invalid "+name+" format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps a ledger error onto an HTTP status. Anything unrecognized
// is logged and reported as a 500.
func writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ledger.ErrInadequateFunds),
		errors.Is(err, ledger.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidLoan),
		errors.Is(err, ledger.ErrInvalidKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Error trying to %s: %v", action, err)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}
