package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// Actor identifies the user (and the branch they act for) on whose
// behalf an operation runs. It is passed explicitly into every service
// and handler call; there is no ambient current-user state.
type Actor struct {
	UserID   string `json:"userID"`
	BranchID string `json:"branchID"`
}
