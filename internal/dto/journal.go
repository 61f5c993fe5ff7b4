package dto

import (
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SourceRefRequest is the typed source reference of a journal line.
type SourceRefRequest struct {
	Kind domain.SourceKind `json:"kind" binding:"required,oneof=ENROLLMENT INVOICE PAYMENT REFUND"`
	ID   string            `json:"id" binding:"required"`
}

// CreateJournalLineRequest is one line of a journal creation request.
// Accounts are referenced by chart-of-accounts code.
type CreateJournalLineRequest struct {
	AccountCode string            `json:"accountCode" binding:"required"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
	Description string            `json:"description"`
	CostCenter  string            `json:"costCenter"`
	Source      *SourceRefRequest `json:"source"`
}

// CreateJournalRequest is the payload for creating a journal (draft or direct).
type CreateJournalRequest struct {
	Date        time.Time                  `json:"date" binding:"required"`
	Description string                     `json:"description" binding:"required"`
	BranchID    string                     `json:"branchID"` // Defaults to the acting user's branch
	Lines       []CreateJournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// VoidJournalRequest carries the reason for voiding a posted journal.
type VoidJournalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// JournalLineResponse is the outward representation of a journal line.
type JournalLineResponse struct {
	LineID      string            `json:"lineID"`
	AccountID   string            `json:"accountID"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
	Description string            `json:"description,omitempty"`
	CostCenter  string            `json:"costCenter,omitempty"`
	Source      *domain.SourceRef `json:"source,omitempty"`
}

// JournalResponse is the outward representation of a journal.
type JournalResponse struct {
	JournalID          string                `json:"journalID"`
	Reference          string                `json:"reference,omitempty"`
	BranchID           string                `json:"branchID"`
	Date               time.Time             `json:"date"`
	Description        string                `json:"description"`
	Status             string                `json:"status"`
	OriginalJournalID  *string               `json:"originalJournalID,omitempty"`
	ReversingJournalID *string               `json:"reversingJournalID,omitempty"`
	VoidReason         string                `json:"voidReason,omitempty"`
	Lines              []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	CreatedBy          string                `json:"createdBy"`
}

// ListJournalsParams holds parameters for listing journals.
type ListJournalsParams struct {
	BranchID     string
	From         *time.Time
	To           *time.Time
	Status       *domain.JournalStatus
	Limit        int
	NextToken    *string
	IncludeLines bool
}

// ListJournalsResponse is a page of journals plus the next-page token.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToJournalLineResponse converts a domain.JournalLine to its DTO.
func ToJournalLineResponse(l *domain.JournalLine) JournalLineResponse {
	return JournalLineResponse{
		LineID:      l.LineID,
		AccountID:   l.AccountID,
		Debit:       l.Debit,
		Credit:      l.Credit,
		Description: l.Description,
		CostCenter:  l.CostCenter,
		Source:      l.Source,
	}
}

// ToJournalResponse converts a domain.Journal to its DTO, including
// lines when they are loaded.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	resp := JournalResponse{
		JournalID:          j.JournalID,
		Reference:          j.Reference,
		BranchID:           j.BranchID,
		Date:               j.JournalDate,
		Description:        j.Description,
		Status:             string(j.Status),
		OriginalJournalID:  j.OriginalJournalID,
		ReversingJournalID: j.ReversingJournalID,
		VoidReason:         j.VoidReason,
		CreatedAt:          j.CreatedAt,
		CreatedBy:          j.CreatedBy,
	}
	if len(j.Lines) > 0 {
		resp.Lines = make([]JournalLineResponse, len(j.Lines))
		for i := range j.Lines {
			resp.Lines[i] = ToJournalLineResponse(&j.Lines[i])
		}
	}
	return resp
}
