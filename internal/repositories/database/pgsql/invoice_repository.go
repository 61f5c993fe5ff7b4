package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/InstiTrack/institute_ledger/internal/models"
	"github.com/InstiTrack/institute_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const invoiceColumns = `invoice_id, enrollment_id, branch_id, amount, issue_date, status, journal_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) *PgxInvoiceRepository {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepository = (*PgxInvoiceRepository)(nil)

// SaveInvoice inserts an invoice row. The enrollment_id unique
// constraint makes a second insert for the same enrollment fail with
// ErrDuplicate, which the invoice handler treats as already done.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := mapping.ToModelInvoice(invoice)
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.InvoiceID,
		m.EnrollmentID,
		m.BranchID,
		m.Amount,
		m.IssueDate,
		m.Status,
		m.JournalID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("invoice for enrollment %s already exists: %w", m.EnrollmentID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save invoice "+m.InvoiceID, err)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.EnrollmentID,
		&m.BranchID,
		&m.Amount,
		&m.IssueDate,
		&m.Status,
		&m.JournalID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	invoice := mapping.ToDomainInvoice(m)
	return &invoice, nil
}

// FindInvoiceByID retrieves an invoice by its ID.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1;`
	invoice, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewAppError(500, "failed to find invoice by ID "+invoiceID, err)
	}
	return invoice, nil
}

// FindInvoiceByEnrollmentID retrieves the invoice generated for an
// enrollment; at most one exists.
func (r *PgxInvoiceRepository) FindInvoiceByEnrollmentID(ctx context.Context, enrollmentID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE enrollment_id = $1;`
	invoice, err := scanInvoice(r.Pool.QueryRow(ctx, query, enrollmentID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewAppError(500, "failed to find invoice for enrollment "+enrollmentID, err)
	}
	return invoice, nil
}

// LinkJournal records the journal that posted the invoice's receivable.
func (r *PgxInvoiceRepository) LinkJournal(ctx context.Context, invoiceID string, journalID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE invoices
		SET journal_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE invoice_id = $1 AND journal_id IS NULL;
	`
	tag, err := r.Pool.Exec(ctx, query, invoiceID, journalID, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to link journal to invoice "+invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindInvoiceByID(ctx, invoiceID); err != nil {
			return err
		}
		// Already linked; linking is idempotent.
		return nil
	}
	return nil
}
