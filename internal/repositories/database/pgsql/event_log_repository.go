package pgsql

import (
	"context"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/InstiTrack/institute_ledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxEventLogRepository struct {
	BaseRepository
}

func newPgxEventLogRepository(pool *pgxpool.Pool) *PgxEventLogRepository {
	return &PgxEventLogRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EventLogRepository = (*PgxEventLogRepository)(nil)

// RecordDispatch upserts the (event type, source id) row: a first
// delivery inserts it, a redelivery bumps the attempt counter and
// resets the status to RECEIVED while the handlers run again.
func (r *PgxEventLogRepository) RecordDispatch(ctx context.Context, record domain.EventRecord) error {
	query := `
		INSERT INTO ledger_events (event_id, event_type, source_id, status, payload, last_error, attempts, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, '', 1, $6, $7, $6, $7)
		ON CONFLICT (event_type, source_id) DO UPDATE
		SET attempts = ledger_events.attempts + 1,
		    status = EXCLUDED.status,
		    payload = EXCLUDED.payload,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		record.EventID,
		string(record.EventType),
		record.SourceID,
		string(record.Status),
		record.Payload,
		record.CreatedAt,
		record.CreatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record event dispatch", err)
	}
	return nil
}

// MarkOutcome sets the final status of a dispatch.
func (r *PgxEventLogRepository) MarkOutcome(ctx context.Context, eventType domain.EventType, sourceID string, status domain.DispatchStatus, lastError string, at time.Time) error {
	query := `
		UPDATE ledger_events
		SET status = $3, last_error = $4, last_updated_at = $5
		WHERE event_type = $1 AND source_id = $2;
	`
	_, err := r.Pool.Exec(ctx, query, string(eventType), sourceID, string(status), lastError, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record event outcome", err)
	}
	return nil
}

// ListUnresolved returns FAILED records plus RECEIVED records older
// than staleAfter, oldest first. These are the events whose ledger
// effect may be missing and need replay.
func (r *PgxEventLogRepository) ListUnresolved(ctx context.Context, staleAfter time.Duration, limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	cutoff := time.Now().Add(-staleAfter)
	query := `
		SELECT event_id, event_type, source_id, status, payload, last_error, attempts, created_at, created_by, last_updated_at, last_updated_by
		FROM ledger_events
		WHERE status = 'FAILED'
		   OR (status = 'RECEIVED' AND last_updated_at < $1)
		ORDER BY last_updated_at
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unresolved events", err)
	}
	defer rows.Close()

	records := []domain.EventRecord{}
	for rows.Next() {
		var m models.EventRecord
		if err := rows.Scan(
			&m.EventID,
			&m.EventType,
			&m.SourceID,
			&m.Status,
			&m.Payload,
			&m.LastError,
			&m.Attempts,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan event row", err)
		}
		records = append(records, domain.EventRecord{
			EventID:   m.EventID,
			EventType: domain.EventType(m.EventType),
			SourceID:  m.SourceID,
			Status:    domain.DispatchStatus(m.Status),
			Payload:   m.Payload,
			LastError: m.LastError,
			Attempts:  m.Attempts,
			AuditFields: domain.AuditFields{
				CreatedAt:     m.CreatedAt,
				CreatedBy:     m.CreatedBy,
				LastUpdatedAt: m.LastUpdatedAt,
				LastUpdatedBy: m.LastUpdatedBy,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating event rows", err)
	}
	return records, nil
}
