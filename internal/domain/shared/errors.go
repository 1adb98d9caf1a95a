package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors built by the New*Error helpers match the package sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeValidation        = "VALIDATION_ERROR"
	CodeConflict          = "CONCURRENCY_CONFLICT"
	CodeLedgerInvariant   = "LEDGER_INVARIANT_VIOLATION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrLedgerInvariant     = NewDomainError(CodeLedgerInvariant, "More than one ledger entry references the same record")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// NewNotFoundError reports a missing record of the given kind
func NewNotFoundError(kind string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", kind, id))
}

// NewInvalidTransitionError reports a status change the state machine rejects
func NewInvalidTransitionError(kind string, from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("%s cannot move from %s to %s", kind, from, to))
}

// NewValidationError reports a field-level validation failure
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewConflictError reports a concurrent modification of the same record
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewLedgerInvariantError reports that a record is referenced by several ledger entries
func NewLedgerInvariantError(kind string, id fmt.Stringer, count int) *DomainError {
	return NewDomainError(CodeLedgerInvariant,
		fmt.Sprintf("%s %s is referenced by %d ledger entries", kind, id, count))
}
