package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus indicates the settlement state of an invoice.
type InvoiceStatus string

const (
	InvoiceOpen    InvoiceStatus = "OPEN"
	InvoiceSettled InvoiceStatus = "SETTLED"
)

// Invoice is the accounts-receivable invoice generated for an
// enrollment fee. At most one invoice exists per enrollment.
type Invoice struct {
	InvoiceID    string          `json:"invoiceID"` // Primary key (UUID)
	EnrollmentID string          `json:"enrollmentID"`
	BranchID     string          `json:"branchID"`
	Amount       decimal.Decimal `json:"amount"`
	IssueDate    time.Time       `json:"issueDate"`
	Status       InvoiceStatus   `json:"status"`
	JournalID    *string         `json:"journalID,omitempty"` // AR/deferred-revenue journal, once posted
	AuditFields
}
