package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
)

// Reconciler closes the gap the decoupled event flow deliberately
// leaves open: a business event was accepted but its ledger posting
// failed or never finished. It periodically replays unresolved events
// through the dispatcher; the handlers' idempotency keys make replay
// safe.
type Reconciler struct {
	eventLog   portsrepo.EventLogRepository
	dispatcher portssvc.EventDispatcher
	logger     *slog.Logger

	interval    time.Duration
	staleAfter  time.Duration
	batchSize   int
	workerCount int
}

func NewReconciler(eventLog portsrepo.EventLogRepository, dispatcher portssvc.EventDispatcher, logger *slog.Logger, interval, staleAfter time.Duration, batchSize, workerCount int) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if workerCount <= 0 {
		workerCount = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		eventLog:    eventLog,
		dispatcher:  dispatcher,
		logger:      logger,
		interval:    interval,
		staleAfter:  staleAfter,
		batchSize:   batchSize,
		workerCount: workerCount,
	}
}

// Start runs the worker loop until the context is cancelled. Blocking call.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Reconciler started", slog.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopping")
			return
		case <-ticker.C:
			r.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch replays one batch of unresolved events through a
// bounded worker pool.
func (r *Reconciler) ProcessBatch(ctx context.Context) {
	records, err := r.eventLog.ListUnresolved(ctx, r.staleAfter, r.batchSize)
	if err != nil {
		r.logger.Error("Failed to list unresolved events", slog.String("error", err.Error()))
		return
	}
	if len(records) == 0 {
		return
	}
	r.logger.Info("Replaying unresolved events", slog.Int("count", len(records)))

	jobs := make(chan domain.EventRecord, len(records))
	var wg sync.WaitGroup
	for w := 0; w < r.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				r.replay(ctx, record)
			}
		}()
	}
	for _, record := range records {
		jobs <- record
	}
	close(jobs)
	wg.Wait()
}

func (r *Reconciler) replay(ctx context.Context, record domain.EventRecord) {
	logger := r.logger.With(
		slog.String("event_type", string(record.EventType)),
		slog.String("source_id", record.SourceID),
		slog.Int("attempts", record.Attempts),
	)
	ctx = middleware.WithLogger(ctx, logger)

	if err := r.dispatcher.DispatchRaw(ctx, record.EventType, record.Payload); err != nil {
		// Still failing; the record stays unresolved and the next
		// cycle picks it up again.
		logger.Error("Event replay failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("Event replay succeeded")
}
