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
	"github.com/google/uuid"
)

// AccountService manages the chart of accounts.
type AccountService struct {
	BaseService
	accountRepo   portsrepo.AccountRepository
	journalReader portsrepo.JournalReader
}

var _ portssvc.ChartOfAccountsSvc = (*AccountService)(nil)

func NewAccountService(repo portsrepo.AccountRepository, journals portsrepo.JournalReader) *AccountService {
	return &AccountService{accountRepo: repo, journalReader: journals}
}

func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	// Account codes must be unique; the repository enforces this, but a
	// cheap lookup here gives a cleaner error for the common case.
	existing, err := s.accountRepo.FindAccountByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to check for existing account code", slog.String("code", req.Code))
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("account code %s already exists: %w", req.Code, apperrors.ErrDuplicate)
	}

	accountType := req.AccountType
	normalBalance := domain.DefaultNormalBalance(accountType)
	if req.NormalBalance != "" {
		normalBalance = req.NormalBalance
	}

	branchID := req.BranchID
	if branchID == "" {
		branchID = actor.BranchID
	}

	now := time.Now()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		Code:          req.Code,
		Name:          req.Name,
		AccountType:   accountType,
		NormalBalance: normalBalance,
		BranchID:      branchID,
		Description:   req.Description,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account in repository", slog.String("account_id", account.AccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *AccountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// GetAccountBalance computes the account's balance as of a point in
// time, stated on its normal side. Deactivated accounts still answer;
// deactivation stops new postings, not reads.
func (s *AccountService) GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*dto.AccountBalanceResponse, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account for balance", slog.String("account_id", accountID))
		}
		return nil, err
	}

	balance, err := s.journalReader.AccountBalanceAsOf(ctx, accountID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute account balance", slog.String("account_id", accountID))
		return nil, err
	}

	return &dto.AccountBalanceResponse{
		AccountID:     account.AccountID,
		Code:          account.Code,
		Name:          account.Name,
		NormalBalance: string(account.NormalBalance),
		AsOf:          asOf,
		Balance:       balance,
	}, nil
}

func (s *AccountService) DeactivateAccount(ctx context.Context, accountID string, actor domain.Actor) error {
	err := s.accountRepo.DeactivateAccount(ctx, accountID, actor.UserID, time.Now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		}
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}
