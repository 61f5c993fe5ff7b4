package dto

import (
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the payload for creating a chart-of-accounts entry.
type CreateAccountRequest struct {
	Code          string             `json:"code" binding:"required"`
	Name          string             `json:"name" binding:"required"`
	AccountType   domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalBalance domain.BalanceSide `json:"normalBalance" binding:"omitempty,oneof=DEBIT CREDIT"`
	BranchID      string             `json:"branchID"`
	Description   string             `json:"description"`
}

// AccountResponse is the outward representation of an account.
type AccountResponse struct {
	AccountID     string `json:"accountID"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	AccountType   string `json:"accountType"`
	NormalBalance string `json:"normalBalance"`
	BranchID      string `json:"branchID,omitempty"`
	Description   string `json:"description,omitempty"`
	IsActive      bool   `json:"isActive"`
}

// AccountBalanceResponse reports an account's balance, stated on its
// normal side, as of a point in time.
type AccountBalanceResponse struct {
	AccountID     string          `json:"accountID"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	NormalBalance string          `json:"normalBalance"`
	AsOf          time.Time       `json:"asOf"`
	Balance       decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain.Account to AccountResponse.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     a.AccountID,
		Code:          a.Code,
		Name:          a.Name,
		AccountType:   string(a.AccountType),
		NormalBalance: string(a.NormalBalance),
		BranchID:      a.BranchID,
		Description:   a.Description,
		IsActive:      a.IsActive,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
