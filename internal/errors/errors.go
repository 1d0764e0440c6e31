package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrStorage         = errors.New("storage error")
	ErrDelivery        = errors.New("delivery error")
)

// Delivery failure kinds, both match ErrDelivery with errors.Is.
var (
	ErrRecipientUnreachable = fmt.Errorf("%w: recipient unreachable", ErrDelivery)
	ErrDeliveryFailed       = fmt.Errorf("%w: delivery failed", ErrDelivery)
)

// Storage wraps a store failure so callers can match it with ErrStorage.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// InvalidArgument reports malformed administrative input.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
