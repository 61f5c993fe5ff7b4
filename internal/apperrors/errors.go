package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict with current resource state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Posting-specific errors. These form the failure taxonomy of the
// posting engine and the event handlers built on top of it.
var (
	// ErrInvalidJournal marks a structurally invalid journal: fewer than
	// two lines, a line with both debit and credit set, or an unknown or
	// inactive account. Never retried.
	ErrInvalidJournal = errors.New("invalid journal")

	// ErrImbalancedJournal marks a journal whose debit and credit sums
	// differ beyond the accepted epsilon. The draft is left untouched.
	ErrImbalancedJournal = errors.New("journal debits and credits do not balance")

	// ErrAlreadyPosted / ErrAlreadyVoid / ErrNotPosted are state machine
	// violations of the draft -> posted -> void lifecycle.
	ErrAlreadyPosted = errors.New("journal is already posted")
	ErrAlreadyVoid   = errors.New("journal is already void")
	ErrNotPosted     = errors.New("journal is not posted")

	// ErrDuplicatePosting is raised when the idempotency key of a journal
	// collides with an existing one. Automated handlers treat this as
	// success and return the original journal.
	ErrDuplicatePosting = errors.New("journal already posted for this event")

	// ErrStorageUnavailable marks a transient storage failure. It is
	// propagated to the caller for retry, never swallowed.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
)

// AppError wraps an underlying error with an HTTP-ish status code and a
// human readable message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message and cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
