package providers

import (
	"errors"
	"fmt"
)

// ParseError means the model responded but the payload did not conform to
// the requested structured-output schema. The raw response text is preserved
// so failures remain diagnosable.
type ParseError struct {
	Msg string
	Raw string // raw model response text
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Msg, e.Err)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError covers network, rate-limit, and provider-side failures
// where no usable response was produced.
type TransportError struct {
	Provider   string
	StatusCode int // 0 when no HTTP status applies
	Msg        string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transport error (status %d): %s", e.Provider, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("%s transport error: %s", e.Provider, e.Msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// RawResponse extracts the raw model response text from a ParseError chain.
// Returns "" when err carries no raw payload.
func RawResponse(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Raw
	}
	return ""
}
