package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry in its
// draft -> posted -> void lifecycle. Void is terminal and only
// reachable from posted.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
	Void   JournalStatus = "VOID"
)

// SourceKind tags the business entity a journal line traces back to.
type SourceKind string

const (
	SourceEnrollment SourceKind = "ENROLLMENT"
	SourceInvoice    SourceKind = "INVOICE"
	SourcePayment    SourceKind = "PAYMENT"
	SourceRefund     SourceKind = "REFUND"
)

// SourceRef is a typed reference to the originating business entity of
// a journal line.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// Journal represents a single, balanced financial event composed of
// multiple journal lines. Once posted it is immutable except for the
// void transition, which reverses it through a mirror journal.
type Journal struct {
	JournalID   string        `json:"journalID"` // Primary key (UUID)
	Reference   string        `json:"reference"` // Sequential reference, assigned at post
	BranchID    string        `json:"branchID"`
	JournalDate time.Time     `json:"journalDate"`
	Description string        `json:"description"`
	Status      JournalStatus `json:"status"`

	// IdempotencyKey is set for journals created by automated event
	// handlers; a unique constraint on it guarantees at most one journal
	// per (event type, source entity).
	IdempotencyKey *string `json:"idempotencyKey,omitempty"`

	// OriginalJournalID is set on a reversing mirror, pointing at the
	// voided journal; ReversingJournalID is set on the voided original.
	OriginalJournalID  *string `json:"originalJournalID,omitempty"`
	ReversingJournalID *string `json:"reversingJournalID,omitempty"`
	VoidReason         string  `json:"voidReason,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"` // Often loaded separately
	AuditFields
}

// IsReversal reports whether the journal is the mirror side of a void.
func (j *Journal) IsReversal() bool {
	return j.OriginalJournalID != nil
}

// JournalLine is a single line of a journal, affecting exactly one
// account with either a debit or a credit amount. Lines are created
// with their journal and never mutated once the journal is posted.
type JournalLine struct {
	LineID      string          `json:"lineID"` // Primary key (UUID)
	JournalID   string          `json:"journalID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`  // >= 0; zero when Credit is set
	Credit      decimal.Decimal `json:"credit"` // >= 0; zero when Debit is set
	Description string          `json:"description,omitempty"`
	CostCenter  string          `json:"costCenter,omitempty"`
	Source      *SourceRef      `json:"source,omitempty"`
	AuditFields
}
