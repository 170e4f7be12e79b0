package exchange

import "fmt"

// ValidationError reports malformed or out-of-range input. It maps to
// a field-level error at the API boundary and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DomainError reports a business-rule violation on otherwise valid
// input: self-trade, non-open trade or transaction, duplicate open
// offer. It maps to a precondition failure at the API boundary.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// IntegrityError reports a persistence-level consistency failure that
// survived the bounded retry path, e.g. repeated reference-number
// collisions.
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure in %s: %v", e.Op, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
