package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/google/uuid"
)

// HandlerFunc handles one domain event. Handlers must be idempotent:
// the router may deliver the same event more than once.
type HandlerFunc func(ctx context.Context, event domain.Event) error

type registration struct {
	name string
	fn   HandlerFunc
}

// Router fans domain events out to their registered handlers and keeps
// the dispatched-event log for reconciliation.
type Router struct {
	handlers map[domain.EventType][]registration
	eventLog portsrepo.EventLogRepository
}

var _ portssvc.EventDispatcher = (*Router)(nil)

func NewRouter(eventLog portsrepo.EventLogRepository) *Router {
	return &Router{
		handlers: make(map[domain.EventType][]registration),
		eventLog: eventLog,
	}
}

// Register appends a named handler to the event type's dispatch list.
// Registration order is dispatch order.
func (r *Router) Register(eventType domain.EventType, name string, fn HandlerFunc) {
	r.handlers[eventType] = append(r.handlers[eventType], registration{name: name, fn: fn})
}

// Dispatch records the event, runs every registered handler and records
// the outcome. Handlers run independently: one failing does not stop
// the others. Any handler error is returned to the caller so it can
// retry; the failed record stays in the log for the reconciler.
func (r *Router) Dispatch(ctx context.Context, event domain.Event) error {
	logger := r.logger(ctx)
	eventType := event.Type()
	sourceID := event.SourceID()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", eventType, err)
	}

	now := time.Now()
	record := domain.EventRecord{
		EventID:   uuid.NewString(),
		EventType: eventType,
		SourceID:  sourceID,
		Status:    domain.DispatchReceived,
		Payload:   payload,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "system",
			LastUpdatedAt: now,
			LastUpdatedBy: "system",
		},
	}
	if err := r.eventLog.RecordDispatch(ctx, record); err != nil {
		// The ledger handlers are idempotent, so a lost log row costs
		// only reconciliation visibility. Proceed.
		logger.Error("Failed to record event dispatch",
			slog.String("error", err.Error()),
			slog.String("event_type", string(eventType)),
			slog.String("source_id", sourceID))
	}

	var handlerErrs []error
	for _, reg := range r.handlers[eventType] {
		if err := reg.fn(ctx, event); err != nil {
			logger.Error("Event handler failed",
				slog.String("error", err.Error()),
				slog.String("event_type", string(eventType)),
				slog.String("source_id", sourceID),
				slog.String("handler", reg.name))
			handlerErrs = append(handlerErrs, fmt.Errorf("%s: %w", reg.name, err))
			continue
		}
		logger.Info("Event handler completed",
			slog.String("event_type", string(eventType)),
			slog.String("source_id", sourceID),
			slog.String("handler", reg.name))
	}

	outcome := domain.DispatchPosted
	lastError := ""
	dispatchErr := errors.Join(handlerErrs...)
	if dispatchErr != nil {
		outcome = domain.DispatchFailed
		lastError = dispatchErr.Error()
	}
	if err := r.eventLog.MarkOutcome(ctx, eventType, sourceID, outcome, lastError, time.Now()); err != nil {
		logger.Error("Failed to record event outcome",
			slog.String("error", err.Error()),
			slog.String("event_type", string(eventType)),
			slog.String("source_id", sourceID))
	}

	return dispatchErr
}

// DispatchRaw decodes a serialized payload and dispatches it. Used by
// the HTTP intake and by replay of logged events.
func (r *Router) DispatchRaw(ctx context.Context, eventType domain.EventType, payload []byte) error {
	event, err := Decode(eventType, payload)
	if err != nil {
		return err
	}
	return r.Dispatch(ctx, event)
}

func (r *Router) logger(ctx context.Context) *slog.Logger {
	if logger := middleware.GetLoggerFromCtx(ctx); logger != nil {
		return logger
	}
	return slog.Default()
}
