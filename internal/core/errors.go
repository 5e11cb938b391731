package core

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the core services. Adapters map these onto
// their own status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBadCredentials    = errors.New("invalid credentials")
	ErrProtectedUser     = errors.New("user cannot be deleted")
)

// ValidationError marks input the caller can fix. The message is safe to
// show to end users verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidPaymentStatus builds the validation error for an unknown payment
// status filter value.
func InvalidPaymentStatus(status string) error {
	return validationf("payment status must be %q or %q, got %q", StatusPaid, StatusUnpaid, status)
}
