package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/fetchplan/internal/engine"
	"github.com/roach88/fetchplan/internal/ir"
)

// Error codes a case can expect.
const (
	ErrorDocument      = "DOCUMENT"                          // request document does not fit the registry
	ErrorConfiguration = string(engine.ErrCodeConfiguration) // unresolved field or join at compile time
	ErrorCardinality   = string(engine.ErrCodeCardinality)   // unique request matched several roots
	ErrorBackend       = "BACKEND"                           // database failure
)

func validErrorCode(code string) bool {
	switch code {
	case ErrorDocument, ErrorConfiguration, ErrorCardinality, ErrorBackend:
		return true
	}
	return false
}

// ErrorCode classifies an error returned while building or executing a
// request.
func ErrorCode(err error) string {
	var docErr *DocumentError
	if errors.As(err, &docErr) {
		return ErrorDocument
	}
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return string(qe.Code)
	}
	return ErrorBackend
}

// checkExpect compares a case outcome with its expectation.
// Returns all mismatches (does not fail-fast).
func checkExpect(expect ExpectClause, out *CaseResult, cause error) []string {
	var errs []string

	if expect.Error != "" {
		if out.ErrorCode != expect.Error {
			if cause != nil {
				errs = append(errs, fmt.Sprintf("expected error %s, got %s: %v", expect.Error, out.ErrorCode, cause))
			} else {
				errs = append(errs, fmt.Sprintf("expected error %s, got success", expect.Error))
			}
		}
		return errs
	}
	if cause != nil {
		return append(errs, fmt.Sprintf("unexpected %s error: %v", out.ErrorCode, cause))
	}

	if expect.Rows != nil {
		if msg := compareRows(expect.Rows, out.Rows); msg != "" {
			errs = append(errs, msg)
		}
	}

	if expect.Total != nil {
		switch {
		case !out.Counted:
			errs = append(errs, "expected a total but none was counted")
		case *expect.Total != out.Total:
			errs = append(errs, fmt.Sprintf("total: expected %d, got %d", *expect.Total, out.Total))
		}
	}

	return errs
}

// compareRows compares expected document rows with hydrated rows as
// canonical JSON.
func compareRows(expected []any, actual ir.IRArray) string {
	want, err := ir.FromAny(expected)
	if err != nil {
		return fmt.Sprintf("expected rows: %v", err)
	}
	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return fmt.Sprintf("expected rows: %v", err)
	}
	gotJSON, err := ir.MarshalCanonical(actual)
	if err != nil {
		return fmt.Sprintf("actual rows: %v", err)
	}
	if string(wantJSON) != string(gotJSON) {
		return fmt.Sprintf("rows mismatch:\n  expected: %s\n  actual:   %s", wantJSON, gotJSON)
	}
	return ""
}
