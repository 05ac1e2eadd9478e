// Package shared holds the building blocks common to every domain package.
package shared

// DomainError is a rule violation raised by a domain entity. Code is stable
// and machine readable; Message is meant for the audit log.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
