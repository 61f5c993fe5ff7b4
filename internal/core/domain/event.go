package domain

import "github.com/shopspring/decimal"

// EventType names the domain events the ledger core reacts to.
type EventType string

const (
	EnrollmentCreated   EventType = "enrollment.created"
	PaymentPaid         EventType = "payment.paid"
	EnrollmentCompleted EventType = "enrollment.completed"
	RefundCreated       EventType = "refund.created"
)

// Event is an immutable domain event payload delivered to the router.
type Event interface {
	Type() EventType
	// SourceID identifies the business entity the event is about; it
	// feeds the idempotency keys of the handlers.
	SourceID() string
}

// Enrollment carries the minimal enrollment fields the ledger needs.
type Enrollment struct {
	EnrollmentID string          `json:"enrollmentID"`
	StudentID    string          `json:"studentID"`
	CourseID     string          `json:"courseID"`
	Fee          decimal.Decimal `json:"fee"`
	BranchID     string          `json:"branchID"`
}

// Payment carries the minimal payment fields the ledger needs.
type Payment struct {
	PaymentID    string          `json:"paymentID"`
	EnrollmentID string          `json:"enrollmentID"`
	Amount       decimal.Decimal `json:"amount"`
	BranchID     string          `json:"branchID"`
}

// Refund carries the minimal refund fields the ledger needs.
type Refund struct {
	RefundID     string          `json:"refundID"`
	PaymentID    string          `json:"paymentID"`
	EnrollmentID string          `json:"enrollmentID"`
	Amount       decimal.Decimal `json:"amount"`
	BranchID     string          `json:"branchID"`
}

// EnrollmentCreatedEvent fires when a student enrolls in a course.
type EnrollmentCreatedEvent struct {
	Enrollment Enrollment `json:"enrollment"`
}

func (e EnrollmentCreatedEvent) Type() EventType { return EnrollmentCreated }
func (e EnrollmentCreatedEvent) SourceID() string {
	return e.Enrollment.EnrollmentID
}

// PaymentPaidEvent fires when a payment reaches completed status.
type PaymentPaidEvent struct {
	Payment Payment `json:"payment"`
}

func (e PaymentPaidEvent) Type() EventType  { return PaymentPaid }
func (e PaymentPaidEvent) SourceID() string { return e.Payment.PaymentID }

// EnrollmentCompletedEvent fires when training is delivered. Amount is
// the portion of the fee to recognize; zero means the full fee.
type EnrollmentCompletedEvent struct {
	Enrollment Enrollment      `json:"enrollment"`
	Amount     decimal.Decimal `json:"amount"`
}

func (e EnrollmentCompletedEvent) Type() EventType { return EnrollmentCompleted }
func (e EnrollmentCompletedEvent) SourceID() string {
	return e.Enrollment.EnrollmentID
}

// RefundCreatedEvent fires when a refund is issued against a payment.
type RefundCreatedEvent struct {
	Refund Refund `json:"refund"`
}

func (e RefundCreatedEvent) Type() EventType  { return RefundCreated }
func (e RefundCreatedEvent) SourceID() string { return e.Refund.RefundID }

// DispatchStatus tracks the outcome of a routed event in the event log.
type DispatchStatus string

const (
	DispatchReceived DispatchStatus = "RECEIVED"
	DispatchPosted   DispatchStatus = "POSTED"
	DispatchFailed   DispatchStatus = "FAILED"
)

// EventRecord is one row of the dispatched-event log. Failed or stale
// records are what the reconciliation worker picks up and replays.
type EventRecord struct {
	EventID   string         `json:"eventID"` // Primary key (UUID)
	EventType EventType      `json:"eventType"`
	SourceID  string         `json:"sourceID"`
	Status    DispatchStatus `json:"status"`
	Payload   []byte         `json:"payload"` // Original JSON payload, for replay
	LastError string         `json:"lastError,omitempty"`
	Attempts  int            `json:"attempts"`
	AuditFields
}
