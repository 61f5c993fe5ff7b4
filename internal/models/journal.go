package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus mirrors domain.JournalStatus at the storage layer.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
	Void   JournalStatus = "VOID"
)

// Journal is the database representation of a journal header.
type Journal struct {
	JournalID          string        `json:"journalID"`
	Reference          string        `json:"reference"`
	BranchID           string        `json:"branchID"`
	JournalDate        time.Time     `json:"journalDate"`
	Description        string        `json:"description"`
	Status             JournalStatus `json:"status"`
	IdempotencyKey     *string       `json:"idempotencyKey"`
	OriginalJournalID  *string       `json:"originalJournalID"`
	ReversingJournalID *string       `json:"reversingJournalID"`
	VoidReason         string        `json:"voidReason"`
	AuditFields
}

// JournalLine is the database representation of a journal line.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	JournalID   string          `json:"journalID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	CostCenter  string          `json:"costCenter"`
	SourceKind  *string         `json:"sourceKind"`
	SourceID    *string         `json:"sourceID"`
	AuditFields
}
