package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single account row in a trial balance
// report. Opening and Closing are stated on the account's normal side.
type TrialBalanceRow struct {
	AccountID     string          `json:"accountID"`
	AccountCode   string          `json:"accountCode"`
	AccountName   string          `json:"accountName"`
	AccountType   AccountType     `json:"accountType"`
	NormalBalance BalanceSide     `json:"normalBalance"`
	Opening       decimal.Decimal `json:"opening"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Closing       decimal.Decimal `json:"closing"`
}

// GeneralLedgerLine is one journal line of a general ledger report,
// carrying the running balance after the line is applied.
type GeneralLedgerLine struct {
	JournalID   string          `json:"journalID"`
	Reference   string          `json:"reference"`
	JournalDate time.Time       `json:"journalDate"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Running     decimal.Decimal `json:"running"`
}

// GeneralLedgerReport is the ledger of a single account over a period.
type GeneralLedgerReport struct {
	AccountID   string              `json:"accountID"`
	AccountCode string              `json:"accountCode"`
	AccountName string              `json:"accountName"`
	Opening     decimal.Decimal     `json:"opening"`
	Lines       []GeneralLedgerLine `json:"lines"`
	Closing     decimal.Decimal     `json:"closing"`
}

// AccountAmount represents an account with its net amount for a period.
type AccountAmount struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	NetAmount decimal.Decimal `json:"netAmount"`
}

// IncomeStatementReport holds net revenue and expense per account over
// a period.
type IncomeStatementReport struct {
	Revenue   []AccountAmount `json:"revenue"`
	Expenses  []AccountAmount `json:"expenses"`
	NetIncome decimal.Decimal `json:"netIncome"`
}

// DeferredRevenueRow is one deferred-revenue movement attributable to a
// source reference, with the liability balance after the movement.
type DeferredRevenueRow struct {
	JournalID   string          `json:"journalID"`
	Reference   string          `json:"reference"`
	JournalDate time.Time       `json:"journalDate"`
	Description string          `json:"description"`
	Deferred    decimal.Decimal `json:"deferred"`   // credit to the liability
	Recognized  decimal.Decimal `json:"recognized"` // debit releasing the liability
	Balance     decimal.Decimal `json:"balance"`
}

// DeferredRevenueSchedule is the deferred-revenue position of a single
// source reference (typically an enrollment).
type DeferredRevenueSchedule struct {
	Source  SourceRef            `json:"source"`
	Rows    []DeferredRevenueRow `json:"rows"`
	Closing decimal.Decimal      `json:"closing"`
}
