package handler

import (
	"context"
	"net/http"
	"time"

	"core-ledger/ledger"
	"core-ledger/model"

	"github.com/google/uuid"
)

// LoanHandler holds dependencies for loan and loan payment handlers.
type LoanHandler struct {
	ledger ledger.Ledger
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(l ledger.Ledger) *LoanHandler {
	return &LoanHandler{ledger: l}
}

// IssueLoanHandler records a loan awaiting approval.
// Dates in the body use the YYYY-MM-DD layout.
//
// Method: POST
// Path: /loans
// Success: 201 Created
// Error: 400 Bad Request (for invalid JSON or loan terms)
// Error: 404 Not Found (if the vault does not exist)
func (h *LoanHandler) IssueLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req model.IssueLoanRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	issue, err := time.Parse(time.DateOnly, req.IssueDate)
	if err != nil {
		http.Error(w, "Invalid issue_date format", http.StatusBadRequest)
		return
	}
	maturity, err := time.Parse(time.DateOnly, req.MaturityDate)
	if err != nil {
		http.Error(w, "Invalid maturity_date format", http.StatusBadRequest)
		return
	}

	loan, err := h.ledger.IssueLoan(r.Context(), model.NewLoan{
		BorrowerID:              req.BorrowerID,
		VaultName:               req.VaultName,
		Principal:               req.Principal,
		InterestRate:            req.InterestRate,
		IssueDate:               issue,
		MaturityDate:            maturity,
		PaymentFrequencyMonths:  req.PaymentFrequencyMonths,
		CompoundFrequencyMonths: req.CompoundFrequencyMonths,
	})
	if err != nil {
		writeError(w, err, "issue loan")
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// GetLoanHandler returns a loan.
//
// Method: GET
// Path: /loans/{loan_id}
func (h *LoanHandler) GetLoanHandler(w http.ResponseWriter, r *http.Request) {
	h.loanAction(w, r, "retrieve loan", h.ledger.FindLoan)
}

// ActivateLoanHandler approves a pending loan.
//
// Method: POST
// Path: /loans/{loan_id}/activate
// Error: 409 Conflict (if the loan is not pending approval)
func (h *LoanHandler) ActivateLoanHandler(w http.ResponseWriter, r *http.Request) {
	h.loanAction(w, r, "activate loan", h.ledger.ActivateLoan)
}

// DefaultLoanHandler marks an active loan as defaulted.
//
// Method: POST
// Path: /loans/{loan_id}/default
func (h *LoanHandler) DefaultLoanHandler(w http.ResponseWriter, r *http.Request) {
	h.loanAction(w, r, "default loan", h.ledger.DefaultLoan)
}

// AccrueHandler computes the interest for the loan's current period.
//
// Method: POST
// Path: /loans/{loan_id}/accrue
func (h *LoanHandler) AccrueHandler(w http.ResponseWriter, r *http.Request) {
	h.loanAction(w, r, "accrue interest", h.ledger.Accrue)
}

func (h *LoanHandler) loanAction(w http.ResponseWriter, r *http.Request, action string,
	fn func(ctx context.Context, id uuid.UUID) (*model.Loan, error)) {
	loanID, ok := pathID(w, r, "loan_id")
	if !ok {
		return
	}

	loan, err := fn(r.Context(), loanID)
	if err != nil {
		writeError(w, err, action)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// DisburseLoanHandler pays the loan's principal into one of the borrower's accounts.
// It expects a JSON body with "account_id".
//
// Method: POST
// Path: /loans/{loan_id}/disburse
// Success: 200 OK with the credited account
// Error: 403 Forbidden (if the account does not belong to the borrower)
// Error: 409 Conflict (if the loan is not active or already disbursed)
func (h *LoanHandler) DisburseLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loan_id")
	if !ok {
		return
	}
	var req model.AccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := h.ledger.DisburseLoan(r.Context(), loanID, req.AccountID)
	if err != nil {
		writeError(w, err, "disburse loan")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// NextPaymentHandler returns the loan's open payment, creating it if needed.
//
// Method: POST
// Path: /loans/{loan_id}/payments/next
// Error: 422 Unprocessable Entity (if the next due date is past maturity)
func (h *LoanHandler) NextPaymentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loan_id")
	if !ok {
		return
	}

	payment, err := h.ledger.GetOrCreateNextPayment(r.Context(), loanID)
	if err != nil {
		writeError(w, err, "prepare next payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// ListPaymentsHandler returns every payment of a loan in due date order.
//
// Method: GET
// Path: /loans/{loan_id}/payments
func (h *LoanHandler) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loan_id")
	if !ok {
		return
	}

	payments, err := h.ledger.ListLoanPayments(r.Context(), loanID)
	if err != nil {
		writeError(w, err, "list loan payments")
		return
	}
	if payments == nil {
		payments = []*model.LoanPayment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// GetPaymentHandler returns one loan payment.
//
// Method: GET
// Path: /loan-payments/{payment_id}
func (h *LoanHandler) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}

	payment, err := h.ledger.FindLoanPayment(r.Context(), paymentID)
	if err != nil {
		writeError(w, err, "retrieve loan payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// PayPaymentHandler settles a loan payment from an account.
// It expects a JSON body with "account_id".
//
// Method: POST
// Path: /loan-payments/{payment_id}/pay
// Success: 200 OK with the stamped payment
// Error: 409 Conflict (if the payment is already paid)
// Error: 422 Unprocessable Entity (for insufficient funds)
func (h *LoanHandler) PayPaymentHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}
	var req model.AccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	payment, err := h.ledger.PayLoanPaymentDue(r.Context(), paymentID, req.AccountID)
	if err != nil {
		writeError(w, err, "pay loan payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
