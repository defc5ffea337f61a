package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when itinerary generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate itinerary")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// Kind classifies a generation failure.
type Kind string

// Failure kinds.
const (
	KindInvalidRequest    Kind = "invalid_request"
	KindAuthFailure       Kind = "auth_failure"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindServerError       Kind = "server_error"
	KindTimeout           Kind = "timeout"
	KindMalformedEnvelope Kind = "malformed_envelope"
	KindInvalidPayload    Kind = "invalid_payload"
	KindUnknown           Kind = "unknown"
)

// Transient reports whether failures of this kind may succeed if the same
// request is sent again.
func (k Kind) Transient() bool {
	switch k {
	case KindQuotaExceeded, KindServerError, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified generation failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrGenerationFailed.
func (e *Error) Is(target error) bool {
	return target == ErrGenerationFailed
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindUnknown
}
