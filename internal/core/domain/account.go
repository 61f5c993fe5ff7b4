package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide is the side on which an account normally carries its balance.
type BalanceSide string

const (
	DebitSide  BalanceSide = "DEBIT"
	CreditSide BalanceSide = "CREDIT"
)

// DefaultNormalBalance returns the conventional normal side for an
// account type: assets and expenses are debit-normal, everything else
// credit-normal.
func DefaultNormalBalance(t AccountType) BalanceSide {
	switch t {
	case Asset, Expense:
		return DebitSide
	default:
		return CreditSide
	}
}

// Account represents one entry of the chart of accounts. Accounts are
// immutable after setup apart from deactivation; they are never deleted.
type Account struct {
	AccountID     string      `json:"accountID"`     // Primary key (UUID)
	Code          string      `json:"code"`          // Unique chart-of-accounts code, e.g. "1100"
	Name          string      `json:"name"`          // Display name
	AccountType   AccountType `json:"accountType"`   // ASSET, LIABILITY, etc.
	NormalBalance BalanceSide `json:"normalBalance"` // DEBIT or CREDIT
	BranchID      string      `json:"branchID"`      // Empty for institute-wide accounts
	Description   string      `json:"description"`
	IsActive      bool        `json:"isActive"` // Deactivated accounts reject new postings
	AuditFields
}
