package booking

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure surfaced by the booking engine.
type ErrorKind string

const (
	KindNoWalkInSlots       ErrorKind = "NoWalkInSlots"
	KindCapacityReached     ErrorKind = "CapacityReached"
	KindNoCandidate         ErrorKind = "NoCandidate"
	KindReservationConflict ErrorKind = "ReservationConflict"
	KindDuplicate           ErrorKind = "DuplicateAppointment"
	KindNotAvailable        ErrorKind = "NotAvailable"
	KindInvalidBreak        ErrorKind = "InvalidBreak"
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindTimeout             ErrorKind = "Timeout"
	KindPermissionDenied    ErrorKind = "PermissionDenied"
	KindUnknown             ErrorKind = "Unknown"
)

// BookingError carries a kind alongside the human-readable reason.
type BookingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

// NewBookingError builds a BookingError with a formatted message.
func NewBookingError(kind ErrorKind, format string, args ...any) error {
	return &BookingError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapBookingError attaches a kind to an underlying error.
func WrapBookingError(kind ErrorKind, err error, msg string) error {
	return &BookingError{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the kind from any error in the chain, Unknown otherwise.
func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind onto the API status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindDuplicate, KindNoWalkInSlots, KindNoCandidate, KindReservationConflict:
		return http.StatusConflict
	case KindCapacityReached:
		return http.StatusTooManyRequests
	case KindInvalidInput, KindInvalidBreak:
		return http.StatusBadRequest
	case KindNotAvailable:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
