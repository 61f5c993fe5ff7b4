package models

// Account is the database representation of a chart-of-accounts entry.
type Account struct {
	AccountID     string `json:"accountID"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	AccountType   string `json:"accountType"`
	NormalBalance string `json:"normalBalance"`
	BranchID      string `json:"branchID"`
	Description   string `json:"description"`
	IsActive      bool   `json:"isActive"`
	AuditFields
}
