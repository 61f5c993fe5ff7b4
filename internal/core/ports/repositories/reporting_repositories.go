package repositories

import (
	"context"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReportingRepository defines the read-only queries backing the report
// computations. All queries see only POSTED, non-reversal journals and
// run under a consistent snapshot.
type ReportingRepository interface {
	// GetTrialBalanceData returns one row per account with opening
	// balance (signed on the account's normal side, from lines dated
	// before from) and the period's debit and credit totals. Closing is
	// computed by the service.
	GetTrialBalanceData(ctx context.Context, from, to time.Time, branchID string) ([]domain.TrialBalanceRow, error)

	// GetGeneralLedgerData returns the account's opening balance as of
	// period start and its lines within the period ordered by
	// (journal_date, journal_id) ascending. Running balances are
	// computed by the service.
	GetGeneralLedgerData(ctx context.Context, accountID string, from, to time.Time) (decimal.Decimal, []domain.GeneralLedgerLine, error)

	// GetIncomeStatementData returns net amounts per revenue and expense
	// account for the period.
	GetIncomeStatementData(ctx context.Context, from, to time.Time, branchID string) (revenue, expenses []domain.AccountAmount, err error)

	// GetDeferredRevenueData returns the deferred-revenue account's
	// lines attributable to the given source reference, ordered by
	// (journal_date, journal_id) ascending.
	GetDeferredRevenueData(ctx context.Context, accountID string, source domain.SourceRef) ([]domain.DeferredRevenueRow, error)
}
