package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrNoSeats means the flight is sold out at the moment the reservation
	// was attempted. Not retried automatically.
	ErrNoSeats = errors.New("no seats available")

	// ErrAlreadyCancelled guards cancellation idempotency: the second cancel
	// of the same booking is a conflict, not a silent no-op.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrLockTimeout is returned when the per-flight row lock could not be
	// acquired within the configured wait. Callers may retry.
	ErrLockTimeout = errors.New("flight is busy, try again")

	// ErrCodesExhausted means the reservation code generator collided on
	// every attempt. The enclosing booking is rolled back. Callers may retry.
	ErrCodesExhausted = errors.New("could not issue a unique reservation code")
)

// ErrValidation marks malformed input rejected before any mutation began.
var ErrValidation = errors.New("invalid input")

// Validationf builds a validation error carrying its own message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Retryable reports whether the error is a transient conflict the caller
// may reasonably retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrCodesExhausted)
}
