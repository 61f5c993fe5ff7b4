package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/InstiTrack/institute_ledger/internal/models"
	"github.com/InstiTrack/institute_ledger/internal/utils/accounting"
	"github.com/InstiTrack/institute_ledger/internal/utils/mapping"
	"github.com/InstiTrack/institute_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const journalColumns = `journal_id, reference, branch_id, journal_date, description, status, idempotency_key, original_journal_id, reversing_journal_id, void_reason, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, journal_id, account_id, debit, credit, description, cost_center, source_kind, source_id, created_at, created_by, last_updated_at, last_updated_by`

// SequenceScope controls journal reference numbering: one sequence for
// the whole ledger or one per branch.
type SequenceScope string

const (
	SequenceGlobal SequenceScope = "global"
	SequenceBranch SequenceScope = "branch"
)

type PgxJournalRepository struct {
	BaseRepository
	sequenceScope SequenceScope
}

func newPgxJournalRepository(pool *pgxpool.Pool, sequenceScope SequenceScope) *PgxJournalRepository {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		sequenceScope:  sequenceScope,
	}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// nextReference atomically claims the next sequence value within the
// caller's transaction and formats it. Voided sequence values leave
// gaps; the sequence is monotonic, not gapless.
func (r *PgxJournalRepository) nextReference(ctx context.Context, tx pgx.Tx, branchID string) (string, error) {
	scope := "global"
	if r.sequenceScope == SequenceBranch && branchID != "" {
		scope = branchID
	}

	query := `
		INSERT INTO journal_sequences (scope, last_value)
		VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET last_value = journal_sequences.last_value + 1
		RETURNING last_value;
	`
	var value int64
	if err := tx.QueryRow(ctx, query, scope).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to claim journal sequence for scope %s: %w", scope, err)
	}

	if scope == "global" {
		return fmt.Sprintf("JV-%06d", value), nil
	}
	return fmt.Sprintf("JV-%s-%06d", scope, value), nil
}

func insertLines(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, line := range lines {
		m := mapping.ToModelJournalLine(line)
		batch.Queue(query,
			m.LineID,
			m.JournalID,
			m.AccountID,
			m.Debit,
			m.Credit,
			m.Description,
			m.CostCenter,
			m.SourceKind,
			m.SourceID,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func insertJournal(ctx context.Context, tx pgx.Tx, m models.Journal) error {
	query := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		m.JournalID,
		m.Reference,
		m.BranchID,
		m.JournalDate,
		m.Description,
		m.Status,
		m.IdempotencyKey,
		m.OriginalJournalID,
		m.ReversingJournalID,
		m.VoidReason,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return err
}

// SaveJournal persists a journal and its lines in one transaction. A
// journal saved directly in POSTED status gets its sequence reference
// here. The insert races cleanly: a concurrent duplicate under the
// same idempotency key loses on the unique constraint and surfaces as
// ErrDuplicatePosting, never as a second journal.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	modelJournal := mapping.ToModelJournal(journal)
	if journal.Status == domain.Posted && journal.Reference == "" {
		ref, err := r.nextReference(ctx, tx, journal.BranchID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to assign journal reference", err)
		}
		modelJournal.Reference = ref
	}

	if err := insertJournal(ctx, tx, modelJournal); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "journals_idempotency_key_key" {
				return fmt.Errorf("journal for idempotency key already exists: %w", apperrors.ErrDuplicatePosting)
			}
			return fmt.Errorf("journal %s already exists: %w", journal.JournalID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert journal "+journal.JournalID, err)
	}

	if err := insertLines(ctx, tx, lines); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for journal "+journal.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

// MarkPosted transitions a DRAFT journal to POSTED and assigns its
// sequence reference in the same transaction. The balance invariant is
// re-checked under the row lock, so a draft edit landing after the
// caller's own check cannot slip an imbalanced journal into POSTED.
// The status guard in the UPDATE makes concurrent posts race cleanly:
// exactly one wins.
func (r *PgxJournalRepository) MarkPosted(ctx context.Context, journalID string, updatedBy string, updatedAt time.Time) (*domain.Journal, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var branchID, status string
	err = tx.QueryRow(ctx, `SELECT branch_id, status FROM journals WHERE journal_id = $1 FOR UPDATE;`, journalID).Scan(&branchID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock journal "+journalID, err)
	}
	if status != string(domain.Draft) {
		return nil, fmt.Errorf("journal %s is not a draft: %w", journalID, apperrors.ErrConflict)
	}

	lines, err := findLinesByJournalIDIn(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}
	if err := accounting.CheckBalanced(lines); err != nil {
		return nil, err
	}

	ref, err := r.nextReference(ctx, tx, branchID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to assign journal reference", err)
	}

	query := `
		UPDATE journals
		SET status = 'POSTED',
		    reference = CASE WHEN reference = '' THEN $2 ELSE reference END,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE journal_id = $1 AND status = 'DRAFT';
	`
	tag, err := tx.Exec(ctx, query, journalID, ref, updatedAt, updatedBy)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to mark journal posted "+journalID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("journal %s is not a draft: %w", journalID, apperrors.ErrConflict)
	}

	journal, err := findJournalByIDIn(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}
	journal.Lines = lines
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return journal, nil
}

// SaveReversal persists the reversing mirror journal with its lines and
// marks the original VOID, all in one transaction.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, reversing domain.Journal, lines []domain.JournalLine, originalJournalID string, reason string, updatedBy string, updatedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Flip the original first; the status guard rejects a double void.
	voidQuery := `
		UPDATE journals
		SET status = 'VOID',
		    reversing_journal_id = $2,
		    void_reason = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE journal_id = $1 AND status = 'POSTED';
	`
	tag, err := tx.Exec(ctx, voidQuery, originalJournalID, reversing.JournalID, reason, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to void journal "+originalJournalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journal %s is not posted: %w", originalJournalID, apperrors.ErrConflict)
	}

	modelJournal := mapping.ToModelJournal(reversing)
	ref, err := r.nextReference(ctx, tx, reversing.BranchID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to assign reversal reference", err)
	}
	modelJournal.Reference = ref

	if err := insertJournal(ctx, tx, modelJournal); err != nil {
		return apperrors.NewAppError(500, "failed to insert reversing journal "+reversing.JournalID, err)
	}
	if err := insertLines(ctx, tx, lines); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for reversing journal "+reversing.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

// querier abstracts pool and transaction for shared read helpers.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanJournal(row pgx.Row) (*domain.Journal, error) {
	var m models.Journal
	err := row.Scan(
		&m.JournalID,
		&m.Reference,
		&m.BranchID,
		&m.JournalDate,
		&m.Description,
		&m.Status,
		&m.IdempotencyKey,
		&m.OriginalJournalID,
		&m.ReversingJournalID,
		&m.VoidReason,
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
	journal := mapping.ToDomainJournal(m)
	return &journal, nil
}

func findJournalByIDIn(ctx context.Context, q querier, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1;`
	journal, err := scanJournal(q.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewAppError(500, "failed to find journal by ID "+journalID, err)
	}
	return journal, nil
}

// FindJournalByID retrieves a journal header by its ID.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	return findJournalByIDIn(ctx, r.Pool, journalID)
}

// FindJournalByIdempotencyKey retrieves the journal created under the
// given idempotency key.
func (r *PgxJournalRepository) FindJournalByIdempotencyKey(ctx context.Context, key string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE idempotency_key = $1;`
	journal, err := scanJournal(r.Pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.NewAppError(500, "failed to find journal by idempotency key", err)
	}
	return journal, nil
}

// FindLinesByJournalID retrieves a journal's lines in insertion order.
func (r *PgxJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	return findLinesByJournalIDIn(ctx, r.Pool, journalID)
}

func findLinesByJournalIDIn(ctx context.Context, q querier, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := q.Query(ctx, query, journalID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for journal "+journalID, err)
	}
	defer rows.Close()

	modelLines := []models.JournalLine{}
	for rows.Next() {
		var m models.JournalLine
		if err := rows.Scan(
			&m.LineID,
			&m.JournalID,
			&m.AccountID,
			&m.Debit,
			&m.Credit,
			&m.Description,
			&m.CostCenter,
			&m.SourceKind,
			&m.SourceID,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for journal "+journalID, err)
		}
		modelLines = append(modelLines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for journal "+journalID, err)
	}

	return mapping.ToDomainJournalLineSlice(modelLines), nil
}

// ListJournals retrieves a page of journals ordered by
// (journal_date, journal_id) descending with token-based pagination.
// Without an explicit status filter only POSTED journals are returned,
// the financial-view default.
func (r *PgxJournalRepository) ListJournals(ctx context.Context, filter portsrepo.ListJournalsFilter) ([]domain.Journal, *string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + journalColumns + ` FROM journals WHERE 1=1`
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		baseQuery += ` AND status = $` + strconv.Itoa(len(args))
	} else {
		baseQuery += ` AND status = 'POSTED'`
	}
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		baseQuery += ` AND branch_id = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		baseQuery += ` AND journal_date >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		baseQuery += ` AND journal_date <= $` + strconv.Itoa(len(args))
	}

	if filter.NextToken != nil && *filter.NextToken != "" {
		lastDate, lastID, decodeErr := pagination.DecodeToken(*filter.NextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastID)
		baseQuery += fmt.Sprintf(` AND (journal_date, journal_id) < ($%d, $%d)`, len(args)-1, len(args))
	}

	args = append(args, fetchLimit)
	query := baseQuery + ` ORDER BY journal_date DESC, journal_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journals", err)
	}
	defer rows.Close()

	journals := make([]domain.Journal, 0, fetchLimit)
	for rows.Next() {
		var m models.Journal
		if err := rows.Scan(
			&m.JournalID,
			&m.Reference,
			&m.BranchID,
			&m.JournalDate,
			&m.Description,
			&m.Status,
			&m.IdempotencyKey,
			&m.OriginalJournalID,
			&m.ReversingJournalID,
			&m.VoidReason,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal row", err)
		}
		journals = append(journals, mapping.ToDomainJournal(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal rows", err)
	}

	var nextToken *string
	if len(journals) > limit {
		journals = journals[:limit]
		last := journals[limit-1]
		token := pagination.EncodeToken(last.JournalDate, last.JournalID)
		nextToken = &token
	}
	return journals, nextToken, nil
}

// AccountBalanceAsOf computes an account's normal-side balance from all
// posted, non-reversal lines dated on or before asOf.
func (r *PgxJournalRepository) AccountBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN a.normal_balance = 'DEBIT' THEN l.debit - l.credit ELSE l.credit - l.debit END
		), 0)
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE l.account_id = $1
		  AND j.status = 'POSTED'
		  AND j.original_journal_id IS NULL
		  AND j.journal_date <= $2;
	`
	var balance decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID, asOf).Scan(&balance); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to compute balance for account "+accountID, err)
	}
	return balance, nil
}
