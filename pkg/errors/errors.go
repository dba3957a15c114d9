// Package errors defines the error taxonomy shared by the provider clients and
// the catalog reconciler: upstream, transport, parse and validation failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported so callers need a single errors import.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

var (
	// ErrUpstream indicates the provider answered with an explicit error status.
	ErrUpstream = errors.New("upstream error")

	// ErrTransport indicates the request never produced a usable response.
	ErrTransport = errors.New("transport error")

	// ErrParse indicates a provider value could not be parsed.
	ErrParse = errors.New("parse error")

	// ErrInvalidInput indicates caller input was rejected before any request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the provider rejected the call with 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a 5xx from the provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// UpstreamError carries a provider-supplied error message verbatim.
type UpstreamError struct {
	Provider   string
	Endpoint   string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Message)
}

// Is implements errors.Is support.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrProviderUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(provider, endpoint string, statusCode int, message string) *UpstreamError {
	return &UpstreamError{
		Provider:   provider,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// TransportError wraps network, timeout and decode failures.
type TransportError struct {
	Provider string
	URL      string
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error for %s: %v", e.Provider, e.URL, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError creates a new TransportError.
func NewTransportError(provider, url string, err error) *TransportError {
	return &TransportError{Provider: provider, URL: url, Err: err}
}

// ParseError reports a provider value that could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(field, value string, err error) *ParseError {
	return &ParseError{Field: field, Value: value, Err: err}
}

// ValidationError represents rejected caller input.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsUpstream reports whether err is an upstream error.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsParse reports whether err is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited reports whether err is a 429 from a provider.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
