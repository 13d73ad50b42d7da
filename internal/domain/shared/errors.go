package shared

// DomainError represents a domain-level error with a stable machine code
type DomainError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error carrying additional context,
// e.g. the conflicting invoice number on a duplicate generation attempt.
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized      = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden         = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrQuotaExceeded     = NewDomainError("QUOTA_EXCEEDED", "Reading quota for this period is exhausted")
	ErrLastAdmin         = NewDomainError("LAST_ADMIN", "The last administrator account cannot be removed")
	ErrDeliveryFailed    = NewDomainError("DELIVERY_FAILED", "External delivery channel failed")
	ErrInvalidCredential = NewDomainError("INVALID_CREDENTIALS", "Invalid identifier or password")
)
