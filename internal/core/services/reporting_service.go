package services

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
	"github.com/InstiTrack/institute_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// reportingService implements the ReportingSvc interface. Reports are
// pure derivations of posted journal lines; nothing here writes.
type reportingService struct {
	BaseService
	reportingRepo       portsrepo.ReportingRepository
	accountRepo         portsrepo.AccountRepository
	deferredAccountCode string
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithDeferredRevenueAccount sets the chart-of-accounts code of the
// deferred revenue liability used by the schedule report.
func WithDeferredRevenueAccount(code string) ReportingServiceOption {
	return func(s *reportingService) {
		s.deferredAccountCode = code
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(reportingRepo portsrepo.ReportingRepository, accountRepo portsrepo.AccountRepository, options ...ReportingServiceOption) portssvc.ReportingSvc {
	svc := &reportingService{
		reportingRepo: reportingRepo,
		accountRepo:   accountRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReportingSvc = (*reportingService)(nil)

// GetTrialBalance generates a trial balance for the period. The
// repository supplies opening balances and period totals; the closing
// column is derived here with the normal-side formula.
func (s *reportingService) GetTrialBalance(ctx context.Context, from, to time.Time, branchID string) (*dto.TrialBalanceResponse, error) {
	rows, err := s.reportingRepo.GetTrialBalanceData(ctx, from, to, branchID)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trial balance data",
			slog.String("from", from.Format(time.RFC3339)),
			slog.String("to", to.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}

	for i := range rows {
		rows[i].Closing = accounting.ClosingBalance(rows[i].NormalBalance, rows[i].Opening, rows[i].Debit, rows[i].Credit)
	}

	resp := dto.ToTrialBalanceResponse(rows, from, to)
	s.LogInfo(ctx, "Trial balance generated",
		slog.Int("row_count", len(rows)),
		slog.String("branch_id", branchID))
	return &resp, nil
}

// GetGeneralLedger generates the ledger of one account over a period,
// replaying its lines in (journal date, journal id) order to carry the
// running balance forward from the opening balance.
func (s *reportingService) GetGeneralLedger(ctx context.Context, accountCode string, from, to time.Time) (*dto.GeneralLedgerResponse, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, accountCode)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to resolve account for general ledger", slog.String("code", accountCode))
		}
		return nil, err
	}

	opening, lines, err := s.reportingRepo.GetGeneralLedgerData(ctx, account.AccountID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve general ledger data", slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to retrieve general ledger data: %w", err)
	}

	running := opening
	for i := range lines {
		if account.NormalBalance == domain.DebitSide {
			running = running.Add(lines[i].Debit).Sub(lines[i].Credit)
		} else {
			running = running.Add(lines[i].Credit).Sub(lines[i].Debit)
		}
		lines[i].Running = running
	}

	report := domain.GeneralLedgerReport{
		AccountID:   account.AccountID,
		AccountCode: account.Code,
		AccountName: account.Name,
		Opening:     opening,
		Lines:       lines,
		Closing:     running,
	}
	return &dto.GeneralLedgerResponse{From: from, To: to, Report: report}, nil
}

// GetIncomeStatement generates the income statement for the period.
func (s *reportingService) GetIncomeStatement(ctx context.Context, from, to time.Time, branchID string) (*dto.IncomeStatementResponse, error) {
	revenue, expenses, err := s.reportingRepo.GetIncomeStatementData(ctx, from, to, branchID)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve income statement data",
			slog.String("from", from.Format(time.RFC3339)),
			slog.String("to", to.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve income statement data: %w", err)
	}

	totalRevenue := decimal.Zero
	for _, r := range revenue {
		totalRevenue = totalRevenue.Add(r.NetAmount)
	}
	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.NetAmount)
	}

	report := domain.IncomeStatementReport{
		Revenue:   revenue,
		Expenses:  expenses,
		NetIncome: totalRevenue.Sub(totalExpenses),
	}
	return &dto.IncomeStatementResponse{From: from, To: to, Report: report}, nil
}

// GetDeferredRevenueSchedule generates the deferred-revenue position of
// one source reference: each credit defers, each debit recognizes, and
// the balance column carries the remaining liability.
func (s *reportingService) GetDeferredRevenueSchedule(ctx context.Context, source domain.SourceRef) (*dto.DeferredRevenueResponse, error) {
	if s.deferredAccountCode == "" {
		return nil, fmt.Errorf("deferred revenue account is not configured: %w", apperrors.ErrInternal)
	}
	account, err := s.accountRepo.FindAccountByCode(ctx, s.deferredAccountCode)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve deferred revenue account", slog.String("code", s.deferredAccountCode))
		return nil, err
	}

	rows, err := s.reportingRepo.GetDeferredRevenueData(ctx, account.AccountID, source)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve deferred revenue data",
			slog.String("source_kind", string(source.Kind)),
			slog.String("source_id", source.ID))
		return nil, fmt.Errorf("failed to retrieve deferred revenue data: %w", err)
	}

	balance := decimal.Zero
	for i := range rows {
		balance = balance.Add(rows[i].Deferred).Sub(rows[i].Recognized)
		rows[i].Balance = balance
	}

	schedule := domain.DeferredRevenueSchedule{
		Source:  source,
		Rows:    rows,
		Closing: balance,
	}
	return &dto.DeferredRevenueResponse{Schedule: schedule}, nil
}
