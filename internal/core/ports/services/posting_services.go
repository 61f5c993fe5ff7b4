package services

import (
	"context"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/InstiTrack/institute_ledger/internal/dto"
)

// PostingSvc is the posting engine: it validates and commits balanced
// journals and drives the draft -> posted -> void state machine.
type PostingSvc interface {
	// CreateDraft validates journal structure (line shape, known active
	// accounts) and saves a DRAFT journal. Balance is not required yet.
	CreateDraft(ctx context.Context, req dto.CreateJournalRequest, actor domain.Actor) (*domain.Journal, error)

	// Post transitions a draft to POSTED. This is the sole point where
	// the balance invariant is checked and becomes permanent; a sequence
	// reference is assigned here if not already set.
	Post(ctx context.Context, journalID string, actor domain.Actor) (*domain.Journal, error)

	// Void reverses a POSTED journal through a mirror journal (debits
	// and credits swapped per line) and marks the original VOID.
	// It returns the reversing journal.
	Void(ctx context.Context, journalID string, reason string, actor domain.Actor) (*domain.Journal, error)

	// PostDirect creates and posts a journal in one transactional step.
	// With an idempotency key set, a duplicate posting returns the
	// original journal and no error.
	PostDirect(ctx context.Context, req dto.CreateJournalRequest, idempotencyKey *string, actor domain.Actor) (*domain.Journal, error)

	GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)
	ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
}
