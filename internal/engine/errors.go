package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/fetchplan/internal/querysql"
)

// QueryError represents a classified failure of one fetch request.
//
// Query errors include:
//   - Configuration: a field or join could not be resolved
//   - Cardinality: a unique fetch matched several root entities
//
// Backend failures are not QueryErrors; they pass through wrapped.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Identifier names the offending field, join or entity.
	Identifier string

	// RequestID correlates the error with executor log lines.
	RequestID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying error, if any.
	Err error
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeConfiguration indicates an unresolved identifier mapping.
	ErrCodeConfiguration QueryErrorCode = "CONFIGURATION"

	// ErrCodeCardinality indicates a unique fetch returned several entities.
	ErrCodeCardinality QueryErrorCode = "CARDINALITY"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Identifier != "" && e.RequestID != "" {
		return fmt.Sprintf("%s: %s (identifier=%s, request=%s)", e.Code, e.Message, e.Identifier, e.RequestID)
	}
	if e.Identifier != "" {
		return fmt.Sprintf("%s: %s (identifier=%s)", e.Code, e.Message, e.Identifier)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error { return e.Err }

// IsConfigurationError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeConfiguration
	}
	return false
}

// IsCardinalityError returns true if the error is a cardinality error.
// Uses errors.As to handle wrapped errors.
func IsCardinalityError(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeCardinality
	}
	return false
}

// NewConfigurationError classifies an unresolved identifier.
func NewConfigurationError(requestID string, cause *querysql.ConfigError) *QueryError {
	return &QueryError{
		Code:       ErrCodeConfiguration,
		Message:    cause.Message,
		Identifier: cause.Identifier,
		RequestID:  requestID,
		Err:        cause,
	}
}

// NewCardinalityError reports a unique fetch that matched n root entities.
func NewCardinalityError(requestID, entity string, n int) *QueryError {
	return &QueryError{
		Code:       ErrCodeCardinality,
		Message:    fmt.Sprintf("expected unique result but query returned %d entities", n),
		Identifier: entity,
		RequestID:  requestID,
		Details: map[string]string{
			"entities": fmt.Sprintf("%d", n),
		},
	}
}
