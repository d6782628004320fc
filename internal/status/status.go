package status

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("record changed concurrently")
	ErrChargeNotFound = errors.New("charge: no payment for charge id")
)

// ValidationError reports a malformed request field. It is raised before
// any record is written or any provider call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProviderErrorKind classifies a PIX provider rejection.
type ProviderErrorKind string

const (
	ProviderAuth       ProviderErrorKind = "auth"
	ProviderValidation ProviderErrorKind = "validation"
	ProviderMalformed  ProviderErrorKind = "malformed_response"
	ProviderGeneric    ProviderErrorKind = "generic"
)

// ProviderError is returned when the PIX provider rejects a request or
// returns a response the client cannot use.
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider: %s: %s", e.Kind, e.Message)
}

func NewProviderError(kind ProviderErrorKind, statusCode int, message string) *ProviderError {
	return &ProviderError{Kind: kind, StatusCode: statusCode, Message: message}
}
