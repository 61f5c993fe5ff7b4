package repositories

import (
	"context"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for the chart of accounts.
type AccountRepository interface {
	// SaveAccount inserts a new account. A code collision surfaces as
	// apperrors.ErrDuplicate.
	SaveAccount(ctx context.Context, account domain.Account) error

	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes returns the accounts for the given codes keyed
	// by code. Missing codes are simply absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// FindAccountsByIDs returns the accounts for the given IDs keyed by ID.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error)

	// DeactivateAccount flips is_active off; accounts are never deleted.
	DeactivateAccount(ctx context.Context, accountID string, updatedBy string, updatedAt time.Time) error
}

// ListJournalsFilter narrows a journal listing.
type ListJournalsFilter struct {
	BranchID  string
	From      *time.Time
	To        *time.Time
	Status    *domain.JournalStatus // nil means POSTED only, the financial-view default
	Limit     int
	NextToken *string
}

// JournalReader defines read operations for journal data.
type JournalReader interface {
	FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// FindJournalByIdempotencyKey returns the journal created under the
	// given idempotency key, or apperrors.ErrNotFound.
	FindJournalByIdempotencyKey(ctx context.Context, key string) (*domain.Journal, error)

	FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error)

	// ListJournals retrieves a page of journals ordered by
	// (journal_date, journal_id) descending, with a token for the next page.
	ListJournals(ctx context.Context, filter ListJournalsFilter) ([]domain.Journal, *string, error)

	// AccountBalanceAsOf computes an account's normal-side balance from
	// all posted, non-reversal lines dated on or before asOf.
	AccountBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
}

// JournalWriter defines write operations for journal data. Each method
// is atomic: a journal and its lines persist together or not at all.
type JournalWriter interface {
	// SaveJournal persists a journal with its lines in one transaction.
	// For journals saved directly in POSTED status a sequence reference
	// is assigned inside the same transaction. An idempotency-key
	// collision surfaces as apperrors.ErrDuplicatePosting; the insert is
	// a single conditional write against the unique constraint, never a
	// read-then-write.
	SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) error

	// MarkPosted transitions a DRAFT journal to POSTED, assigning the
	// next sequence reference in the same transaction. The balance
	// invariant is re-checked inside the transaction under a row lock;
	// an imbalanced draft surfaces apperrors.ErrImbalancedJournal and
	// stays a draft. Returns apperrors.ErrConflict when the journal is
	// no longer a draft.
	MarkPosted(ctx context.Context, journalID string, updatedBy string, updatedAt time.Time) (*domain.Journal, error)

	// SaveReversal persists the reversing mirror journal with its lines
	// and marks the original VOID, all in one transaction. Returns
	// apperrors.ErrConflict when the original is not POSTED anymore.
	SaveReversal(ctx context.Context, reversing domain.Journal, lines []domain.JournalLine, originalJournalID string, reason string, updatedBy string, updatedAt time.Time) error
}

// JournalRepositoryFacade combines all journal repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}

// InvoiceRepository defines persistence for AR invoices.
type InvoiceRepository interface {
	// SaveInvoice inserts an invoice. The enrollment_id unique
	// constraint surfaces a second insert as apperrors.ErrDuplicate.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	FindInvoiceByEnrollmentID(ctx context.Context, enrollmentID string) (*domain.Invoice, error)

	// LinkJournal records the journal that posted the invoice's AR.
	LinkJournal(ctx context.Context, invoiceID string, journalID string, updatedBy string, updatedAt time.Time) error
}

// EventLogRepository defines persistence for the dispatched-event log.
type EventLogRepository interface {
	// RecordDispatch upserts the (event type, source id) row, bumping
	// the attempt counter and storing the payload for replay.
	RecordDispatch(ctx context.Context, record domain.EventRecord) error

	// MarkOutcome sets the final status of a dispatch.
	MarkOutcome(ctx context.Context, eventType domain.EventType, sourceID string, status domain.DispatchStatus, lastError string, at time.Time) error

	// ListUnresolved returns FAILED records plus RECEIVED records older
	// than staleAfter, up to limit rows, oldest first.
	ListUnresolved(ctx context.Context, staleAfter time.Duration, limit int) ([]domain.EventRecord, error)
}
