package services

import (
	"context"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/InstiTrack/institute_ledger/internal/dto"
)

// ChartOfAccountsSvc manages the chart of accounts.
type ChartOfAccountsSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string, actor domain.Actor) error

	// GetAccountBalance computes the account's normal-side balance from
	// posted, non-reversal lines dated on or before asOf.
	GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*dto.AccountBalanceResponse, error)
}

// ReportingSvc derives financial reports from posted journal lines.
// Voided journals and their reversing mirrors are excluded everywhere.
type ReportingSvc interface {
	GetTrialBalance(ctx context.Context, from, to time.Time, branchID string) (*dto.TrialBalanceResponse, error)
	GetGeneralLedger(ctx context.Context, accountCode string, from, to time.Time) (*dto.GeneralLedgerResponse, error)
	GetIncomeStatement(ctx context.Context, from, to time.Time, branchID string) (*dto.IncomeStatementResponse, error)
	GetDeferredRevenueSchedule(ctx context.Context, source domain.SourceRef) (*dto.DeferredRevenueResponse, error)
}
