package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/dto"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/InstiTrack/institute_ledger/internal/utils/idempotency"
	"github.com/google/uuid"
)

// systemUserID stamps audit fields on postings made by automated
// handlers rather than a human user.
const systemUserID = "system"

// AccountCodes names the chart-of-accounts entries the automated
// handlers post against.
type AccountCodes struct {
	Receivable      string
	Cash            string
	DeferredRevenue string
	TuitionRevenue  string
}

// LedgerHandlers holds the event handlers that translate domain events
// into ledger postings. Every handler is idempotent: a replayed event
// finds its journal already posted and is a no-op.
type LedgerHandlers struct {
	posting     portssvc.PostingSvc
	journalRepo portsrepo.JournalReader
	invoiceRepo portsrepo.InvoiceRepository
	publisher   portssvc.EventPublisher
	accounts    AccountCodes
}

// NewLedgerHandlers creates the handler set. The publisher may be nil,
// in which case no outbound events are emitted.
func NewLedgerHandlers(posting portssvc.PostingSvc, journalRepo portsrepo.JournalReader, invoiceRepo portsrepo.InvoiceRepository, publisher portssvc.EventPublisher, accounts AccountCodes) *LedgerHandlers {
	return &LedgerHandlers{
		posting:     posting,
		journalRepo: journalRepo,
		invoiceRepo: invoiceRepo,
		publisher:   publisher,
		accounts:    accounts,
	}
}

// RegisterAll wires every handler into the router. Registration order
// within an event type is dispatch order.
func (h *LedgerHandlers) RegisterAll(router *Router) {
	router.Register(domain.EnrollmentCreated, "GenerateInvoice", h.GenerateInvoice)
	router.Register(domain.EnrollmentCreated, "PostDeferredRevenue", h.PostDeferredRevenue)
	router.Register(domain.PaymentPaid, "PostCashReceipt", h.PostCashReceipt)
	router.Register(domain.EnrollmentCompleted, "RecognizeRevenue", h.RecognizeRevenue)
	router.Register(domain.RefundCreated, "PostRefundEntry", h.PostRefundEntry)
}

func (h *LedgerHandlers) logger(ctx context.Context) *slog.Logger {
	if logger := middleware.GetLoggerFromCtx(ctx); logger != nil {
		return logger
	}
	return slog.Default()
}

// GenerateInvoice creates the accounts-receivable invoice for a new
// enrollment's fee. The enrollment_id unique constraint makes the
// second delivery a no-op.
func (h *LedgerHandlers) GenerateInvoice(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.EnrollmentCreatedEvent)
	if !ok {
		return fmt.Errorf("GenerateInvoice received %T: %w", event, apperrors.ErrValidation)
	}
	enrollment := ev.Enrollment

	now := time.Now()
	invoice := domain.Invoice{
		InvoiceID:    uuid.NewString(),
		EnrollmentID: enrollment.EnrollmentID,
		BranchID:     enrollment.BranchID,
		Amount:       enrollment.Fee,
		IssueDate:    now,
		Status:       domain.InvoiceOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     systemUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: systemUserID,
		},
	}

	if err := h.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			h.logger(ctx).Info("Invoice already exists for enrollment",
				slog.String("enrollment_id", enrollment.EnrollmentID))
			return nil
		}
		return fmt.Errorf("saving invoice for enrollment %s: %w", enrollment.EnrollmentID, err)
	}

	h.logger(ctx).Info("Invoice generated",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("enrollment_id", enrollment.EnrollmentID))

	if h.publisher != nil {
		if err := h.publisher.PublishInvoiceGenerated(ctx, &invoice); err != nil {
			// The invoice is durable; publishing is best effort.
			h.logger(ctx).Error("Failed to publish invoice.generated event",
				slog.String("error", err.Error()),
				slog.String("invoice_id", invoice.InvoiceID))
		}
	}
	return nil
}

// PostDeferredRevenue posts the enrollment fee as a receivable against
// deferred revenue: Dr AR / Cr Deferred Revenue for the full fee.
func (h *LedgerHandlers) PostDeferredRevenue(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.EnrollmentCreatedEvent)
	if !ok {
		return fmt.Errorf("PostDeferredRevenue received %T: %w", event, apperrors.ErrValidation)
	}
	enrollment := ev.Enrollment

	source := &dto.SourceRefRequest{Kind: domain.SourceEnrollment, ID: enrollment.EnrollmentID}
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: fmt.Sprintf("Course fee receivable for enrollment %s", enrollment.EnrollmentID),
		BranchID:    enrollment.BranchID,
		Lines: []dto.CreateJournalLineRequest{
			{AccountCode: h.accounts.Receivable, Debit: enrollment.Fee, Source: source},
			{AccountCode: h.accounts.DeferredRevenue, Credit: enrollment.Fee, Source: source},
		},
	}

	key := idempotency.Key("enrollment", enrollment.EnrollmentID, idempotency.ActionDeferredRevenue)
	journal, err := h.posting.PostDirect(ctx, req, &key, h.actor(enrollment.BranchID))
	if err != nil {
		return fmt.Errorf("posting deferred revenue for enrollment %s: %w", enrollment.EnrollmentID, err)
	}

	h.linkInvoiceJournal(ctx, enrollment.EnrollmentID, journal.JournalID)
	return nil
}

// PostCashReceipt posts a completed payment: Dr Cash / Cr AR for the
// payment amount, scoped to the payment's branch.
func (h *LedgerHandlers) PostCashReceipt(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.PaymentPaidEvent)
	if !ok {
		return fmt.Errorf("PostCashReceipt received %T: %w", event, apperrors.ErrValidation)
	}
	payment := ev.Payment

	source := &dto.SourceRefRequest{Kind: domain.SourcePayment, ID: payment.PaymentID}
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: fmt.Sprintf("Cash receipt for payment %s", payment.PaymentID),
		BranchID:    payment.BranchID,
		Lines: []dto.CreateJournalLineRequest{
			{AccountCode: h.accounts.Cash, Debit: payment.Amount, Source: source},
			{AccountCode: h.accounts.Receivable, Credit: payment.Amount, Source: source},
		},
	}

	key := idempotency.Key("payment", payment.PaymentID, idempotency.ActionCashReceipt)
	if _, err := h.posting.PostDirect(ctx, req, &key, h.actor(payment.BranchID)); err != nil {
		return fmt.Errorf("posting cash receipt for payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// RecognizeRevenue releases deferred revenue as earned once training is
// delivered: Dr Deferred Revenue / Cr Revenue for the recognized
// portion (the full fee when the event carries no amount).
func (h *LedgerHandlers) RecognizeRevenue(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.EnrollmentCompletedEvent)
	if !ok {
		return fmt.Errorf("RecognizeRevenue received %T: %w", event, apperrors.ErrValidation)
	}
	enrollment := ev.Enrollment

	amount := ev.Amount
	if amount.IsZero() {
		amount = enrollment.Fee
	}

	source := &dto.SourceRefRequest{Kind: domain.SourceEnrollment, ID: enrollment.EnrollmentID}
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: fmt.Sprintf("Revenue recognition for enrollment %s", enrollment.EnrollmentID),
		BranchID:    enrollment.BranchID,
		Lines: []dto.CreateJournalLineRequest{
			{AccountCode: h.accounts.DeferredRevenue, Debit: amount, Source: source},
			{AccountCode: h.accounts.TuitionRevenue, Credit: amount, Source: source},
		},
	}

	key := idempotency.Key("enrollment", enrollment.EnrollmentID, idempotency.ActionRevenueRecognition)
	if _, err := h.posting.PostDirect(ctx, req, &key, h.actor(enrollment.BranchID)); err != nil {
		return fmt.Errorf("recognizing revenue for enrollment %s: %w", enrollment.EnrollmentID, err)
	}
	return nil
}

// PostRefundEntry reverses a refunded amount out of the ledger:
// Cr Cash, and Dr Revenue when the enrollment's revenue was already
// recognized, Dr Deferred Revenue when it was not.
func (h *LedgerHandlers) PostRefundEntry(ctx context.Context, event domain.Event) error {
	ev, ok := event.(*domain.RefundCreatedEvent)
	if !ok {
		return fmt.Errorf("PostRefundEntry received %T: %w", event, apperrors.ErrValidation)
	}
	refund := ev.Refund

	debitAccount, err := h.refundDebitAccount(ctx, refund.EnrollmentID)
	if err != nil {
		return fmt.Errorf("resolving refund debit account for refund %s: %w", refund.RefundID, err)
	}

	source := &dto.SourceRefRequest{Kind: domain.SourceRefund, ID: refund.RefundID}
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: fmt.Sprintf("Refund %s against payment %s", refund.RefundID, refund.PaymentID),
		BranchID:    refund.BranchID,
		Lines: []dto.CreateJournalLineRequest{
			{AccountCode: debitAccount, Debit: refund.Amount, Source: source},
			{AccountCode: h.accounts.Cash, Credit: refund.Amount, Source: source},
		},
	}

	key := idempotency.Key("refund", refund.RefundID, idempotency.ActionRefundEntry)
	if _, err := h.posting.PostDirect(ctx, req, &key, h.actor(refund.BranchID)); err != nil {
		return fmt.Errorf("posting refund entry for refund %s: %w", refund.RefundID, err)
	}
	return nil
}

// refundDebitAccount decides which account absorbs the refund debit: if
// the enrollment's revenue-recognition journal exists, revenue was
// earned and the refund debits Revenue; otherwise the fee still sits in
// Deferred Revenue and the refund debits that liability.
func (h *LedgerHandlers) refundDebitAccount(ctx context.Context, enrollmentID string) (string, error) {
	recognitionKey := idempotency.Key("enrollment", enrollmentID, idempotency.ActionRevenueRecognition)
	_, err := h.journalRepo.FindJournalByIdempotencyKey(ctx, recognitionKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return h.accounts.DeferredRevenue, nil
		}
		return "", err
	}
	return h.accounts.TuitionRevenue, nil
}

// linkInvoiceJournal records the journal on the enrollment's invoice.
// Best effort: the invoice may not exist yet when the handlers of one
// dispatch race, and the next replay links it.
func (h *LedgerHandlers) linkInvoiceJournal(ctx context.Context, enrollmentID, journalID string) {
	invoice, err := h.invoiceRepo.FindInvoiceByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			h.logger(ctx).Error("Failed to look up invoice for journal link",
				slog.String("error", err.Error()),
				slog.String("enrollment_id", enrollmentID))
		}
		return
	}
	if invoice.JournalID != nil {
		return
	}
	if err := h.invoiceRepo.LinkJournal(ctx, invoice.InvoiceID, journalID, systemUserID, time.Now()); err != nil {
		h.logger(ctx).Error("Failed to link journal to invoice",
			slog.String("error", err.Error()),
			slog.String("invoice_id", invoice.InvoiceID),
			slog.String("journal_id", journalID))
	}
}

func (h *LedgerHandlers) actor(branchID string) domain.Actor {
	return domain.Actor{UserID: systemUserID, BranchID: branchID}
}
