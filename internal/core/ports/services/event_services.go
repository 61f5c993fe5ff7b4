package services

import (
	"context"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
)

// EventDispatcher routes domain events to their registered handlers.
type EventDispatcher interface {
	// Dispatch fans the event out to every handler registered for its
	// type, records the dispatch outcome in the event log, and returns
	// the first handler error encountered.
	Dispatch(ctx context.Context, event domain.Event) error

	// DispatchRaw decodes a serialized event payload and dispatches it.
	// Used by the HTTP intake and by replay of logged events.
	DispatchRaw(ctx context.Context, eventType domain.EventType, payload []byte) error
}

// EventPublisher emits outbound integration events after ledger
// activity. Implementations must be safe for concurrent use.
type EventPublisher interface {
	PublishJournalPosted(ctx context.Context, journal *domain.Journal) error
	PublishInvoiceGenerated(ctx context.Context, invoice *domain.Invoice) error
	Close() error
}
