package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the database representation of an AR invoice.
type Invoice struct {
	InvoiceID    string          `json:"invoiceID"`
	EnrollmentID string          `json:"enrollmentID"`
	BranchID     string          `json:"branchID"`
	Amount       decimal.Decimal `json:"amount"`
	IssueDate    time.Time       `json:"issueDate"`
	Status       string          `json:"status"`
	JournalID    *string         `json:"journalID"`
	AuditFields
}

// EventRecord is the database representation of a dispatched-event log row.
type EventRecord struct {
	EventID   string `json:"eventID"`
	EventType string `json:"eventType"`
	SourceID  string `json:"sourceID"`
	Status    string `json:"status"`
	Payload   []byte `json:"payload"`
	LastError string `json:"lastError"`
	Attempts  int    `json:"attempts"`
	AuditFields
}
