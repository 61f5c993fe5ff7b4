package dto

import (
	"time"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TrialBalanceResponse is the outward trial balance report.
type TrialBalanceResponse struct {
	From        time.Time                `json:"from"`
	To          time.Time                `json:"to"`
	Rows        []domain.TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal          `json:"totalDebit"`
	TotalCredit decimal.Decimal          `json:"totalCredit"`
}

// ToTrialBalanceResponse wraps the rows with period totals.
func ToTrialBalanceResponse(rows []domain.TrialBalanceRow, from, to time.Time) TrialBalanceResponse {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.Debit)
		totalCredit = totalCredit.Add(row.Credit)
	}
	return TrialBalanceResponse{
		From:        from,
		To:          to,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}
}

// GeneralLedgerResponse is the outward general ledger report.
type GeneralLedgerResponse struct {
	From   time.Time                  `json:"from"`
	To     time.Time                  `json:"to"`
	Report domain.GeneralLedgerReport `json:"report"`
}

// IncomeStatementResponse is the outward income statement.
type IncomeStatementResponse struct {
	From   time.Time                    `json:"from"`
	To     time.Time                    `json:"to"`
	Report domain.IncomeStatementReport `json:"report"`
}

// DeferredRevenueResponse is the outward deferred-revenue schedule.
type DeferredRevenueResponse struct {
	Schedule domain.DeferredRevenueSchedule `json:"schedule"`
}
