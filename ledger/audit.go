package ledger

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditEvent is one committed fund movement or loan state change.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation"`
	AccountID uuid.UUID         `json:"account_id"`
	LoanID    uuid.UUID         `json:"loan_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Details   map[string]string `json:"details,omitempty"`
}

// AuditLogger receives an event after each unit of work commits.
type AuditLogger interface {
	Record(event AuditEvent)
}

// LogAuditLogger writes events as JSON lines through the standard logger.
type LogAuditLogger struct {
	Logger *log.Logger
}

func (a LogAuditLogger) Record(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("audit: could not encode event %s: %v", event.Operation, err)
		return
	}
	if a.Logger != nil {
		a.Logger.Printf("AUDIT: %s", data)
		return
	}
	log.Printf("AUDIT: %s", data)
}

type nopAuditLogger struct{}

func (nopAuditLogger) Record(AuditEvent) {}
