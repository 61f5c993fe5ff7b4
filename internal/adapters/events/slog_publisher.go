package events

import (
	"context"
	"log/slog"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
)

// SlogPublisher is the fallback publisher used when no broker is
// configured: outbound events are logged instead of emitted.
type SlogPublisher struct {
	Logger *slog.Logger
}

var _ portssvc.EventPublisher = (*SlogPublisher)(nil)

func NewSlogPublisher(logger *slog.Logger) *SlogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogPublisher{Logger: logger}
}

func (p *SlogPublisher) PublishJournalPosted(ctx context.Context, journal *domain.Journal) error {
	p.Logger.Info("journal.posted",
		slog.String("journal_id", journal.JournalID),
		slog.String("reference", journal.Reference),
		slog.String("branch_id", journal.BranchID))
	return nil
}

func (p *SlogPublisher) PublishInvoiceGenerated(ctx context.Context, invoice *domain.Invoice) error {
	p.Logger.Info("invoice.generated",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("enrollment_id", invoice.EnrollmentID),
		slog.String("amount", invoice.Amount.String()))
	return nil
}

func (p *SlogPublisher) Close() error { return nil }
