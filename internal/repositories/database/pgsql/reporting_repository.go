package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements the ReportingRepository interface.
// Every query filters to posted, non-reversal journals: voided
// originals and their mirrors cancel out and must not leak into
// financial views.
type reportingRepository struct {
	BaseRepository
}

func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// GetTrialBalanceData retrieves, per account, the opening balance as of
// period start (signed on the account's normal side) and the period's
// debit and credit totals. Accounts with no activity at all are skipped.
func (r *reportingRepository) GetTrialBalanceData(ctx context.Context, from, to time.Time, branchID string) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT
			a.account_id,
			a.code,
			a.name,
			a.account_type,
			a.normal_balance,
			COALESCE(SUM(
				CASE WHEN j.journal_date < $1 THEN
					CASE WHEN a.normal_balance = 'DEBIT' THEN l.debit - l.credit ELSE l.credit - l.debit END
				ELSE 0 END
			), 0) AS opening,
			COALESCE(SUM(l.debit) FILTER (WHERE j.journal_date >= $1 AND j.journal_date <= $2), 0) AS period_debit,
			COALESCE(SUM(l.credit) FILTER (WHERE j.journal_date >= $1 AND j.journal_date <= $2), 0) AS period_credit
		FROM journal_lines l
		JOIN accounts a ON a.account_id = l.account_id
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE j.status = 'POSTED'
			AND j.original_journal_id IS NULL
			AND j.journal_date <= $2
			AND ($3 = '' OR j.branch_id = $3)
		GROUP BY a.account_id, a.code, a.name, a.account_type, a.normal_balance
		ORDER BY a.code;
	`

	rows, err := r.Pool.Query(ctx, query, from, to, branchID)
	if err != nil {
		return nil, fmt.Errorf("error querying trial balance data: %w", err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType, normalBalance string

		if err := rows.Scan(
			&row.AccountID,
			&row.AccountCode,
			&row.AccountName,
			&accountType,
			&normalBalance,
			&row.Opening,
			&row.Debit,
			&row.Credit,
		); err != nil {
			return nil, fmt.Errorf("error scanning trial balance row: %w", err)
		}

		row.AccountType = domain.AccountType(accountType)
		row.NormalBalance = domain.BalanceSide(normalBalance)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trial balance rows: %w", err)
	}
	return result, nil
}

// GetGeneralLedgerData retrieves an account's opening balance as of
// period start and its period lines in (journal_date, journal_id)
// order. The tie-break on journal_id keeps output deterministic.
func (r *reportingRepository) GetGeneralLedgerData(ctx context.Context, accountID string, from, to time.Time) (decimal.Decimal, []domain.GeneralLedgerLine, error) {
	openingQuery := `
		SELECT COALESCE(SUM(
			CASE WHEN a.normal_balance = 'DEBIT' THEN l.debit - l.credit ELSE l.credit - l.debit END
		), 0)
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE l.account_id = $1
			AND j.status = 'POSTED'
			AND j.original_journal_id IS NULL
			AND j.journal_date < $2;
	`
	var opening decimal.Decimal
	if err := r.Pool.QueryRow(ctx, openingQuery, accountID, from).Scan(&opening); err != nil {
		return decimal.Zero, nil, fmt.Errorf("error querying general ledger opening balance: %w", err)
	}

	linesQuery := `
		SELECT j.journal_id, j.reference, j.journal_date, l.description, l.debit, l.credit
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE l.account_id = $1
			AND j.status = 'POSTED'
			AND j.original_journal_id IS NULL
			AND j.journal_date >= $2 AND j.journal_date <= $3
		ORDER BY j.journal_date, j.journal_id, l.created_at, l.line_id;
	`
	rows, err := r.Pool.Query(ctx, linesQuery, accountID, from, to)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("error querying general ledger lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.GeneralLedgerLine{}
	for rows.Next() {
		var line domain.GeneralLedgerLine
		if err := rows.Scan(
			&line.JournalID,
			&line.Reference,
			&line.JournalDate,
			&line.Description,
			&line.Debit,
			&line.Credit,
		); err != nil {
			return decimal.Zero, nil, fmt.Errorf("error scanning general ledger line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, nil, fmt.Errorf("error iterating general ledger lines: %w", err)
	}
	return opening, lines, nil
}

// GetIncomeStatementData retrieves net amounts per revenue and expense
// account for the period.
func (r *reportingRepository) GetIncomeStatementData(ctx context.Context, from, to time.Time, branchID string) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	query := `
		SELECT
			a.account_type,
			a.account_id,
			a.code,
			a.name,
			SUM(CASE WHEN a.account_type = 'REVENUE' THEN l.credit - l.debit ELSE l.debit - l.credit END) AS net
		FROM journal_lines l
		JOIN accounts a ON a.account_id = l.account_id
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE j.journal_date >= $1 AND j.journal_date <= $2
			AND j.status = 'POSTED'
			AND j.original_journal_id IS NULL
			AND ($3 = '' OR j.branch_id = $3)
			AND a.account_type IN ('REVENUE', 'EXPENSE')
		GROUP BY a.account_type, a.account_id, a.code, a.name
		ORDER BY a.code;
	`

	rows, err := r.Pool.Query(ctx, query, from, to, branchID)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying income statement data: %w", err)
	}
	defer rows.Close()

	revenue := []domain.AccountAmount{}
	expenses := []domain.AccountAmount{}

	for rows.Next() {
		var accountType string
		var amount domain.AccountAmount

		if err := rows.Scan(&accountType, &amount.AccountID, &amount.Code, &amount.Name, &amount.NetAmount); err != nil {
			return nil, nil, fmt.Errorf("error scanning income statement row: %w", err)
		}

		if accountType == string(domain.Revenue) {
			revenue = append(revenue, amount)
		} else {
			expenses = append(expenses, amount)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating income statement rows: %w", err)
	}
	return revenue, expenses, nil
}

// GetDeferredRevenueData retrieves the deferred-revenue account's
// movements attributable to one source reference, in posting order.
func (r *reportingRepository) GetDeferredRevenueData(ctx context.Context, accountID string, source domain.SourceRef) ([]domain.DeferredRevenueRow, error) {
	query := `
		SELECT j.journal_id, j.reference, j.journal_date, l.description, l.credit, l.debit
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE l.account_id = $1
			AND l.source_kind = $2
			AND l.source_id = $3
			AND j.status = 'POSTED'
			AND j.original_journal_id IS NULL
		ORDER BY j.journal_date, j.journal_id, l.created_at, l.line_id;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, string(source.Kind), source.ID)
	if err != nil {
		return nil, fmt.Errorf("error querying deferred revenue data: %w", err)
	}
	defer rows.Close()

	result := []domain.DeferredRevenueRow{}
	for rows.Next() {
		var row domain.DeferredRevenueRow
		if err := rows.Scan(
			&row.JournalID,
			&row.Reference,
			&row.JournalDate,
			&row.Description,
			&row.Deferred,
			&row.Recognized,
		); err != nil {
			return nil, fmt.Errorf("error scanning deferred revenue row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deferred revenue rows: %w", err)
	}
	return result, nil
}
