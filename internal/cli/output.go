package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/roach88/fetchplan/internal/engine"
)

// Exit codes. A request that reached the executor and was refused exits 1;
// one that never got that far exits 2.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected request, invalid schema or failed scenario
	ExitCommandError = 2 // missing schema or database, backend failure
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. An explicit ExitError wins.
// Otherwise an executor QueryError is the request's fault and a cancelled or
// timed out fetch is the environment's.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return ExitFailure
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ExitCommandError
	}
	return ExitFailure
}

// Envelope statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// OutputFormatter writes command results as text or as a JSON Envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer parseable
	Verbose   bool
}

// Envelope wraps every JSON result. RequestID ties a fetch to the
// executor's log lines.
type Envelope struct {
	Status    string   `json:"status"`
	Data      any      `json:"data,omitempty"`
	Error     *Problem `json:"error,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Problem is one reported failure: a loader code such as E007, or an
// executor code such as CONFIGURATION or CARDINALITY.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(Envelope{Status: StatusOK, Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs a problem in the configured format. Text mode prints string
// details one key per line, sorted, and only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(Envelope{
			Status: StatusError,
			Error:  &Problem{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "%s: %s\n", code, message)
	if !f.Verbose || details == nil {
		return nil
	}
	if m, ok := details.(map[string]string); ok {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			fmt.Fprintf(f.Writer, "  %s: %s\n", k, m[k])
		}
		return nil
	}
	fmt.Fprintf(f.Writer, "  %v\n", details)
	return nil
}

// VerboseLog writes a diagnostic line when verbose is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// Fail reports a problem and returns an ExitError carrying exitCode.
func (f *OutputFormatter) Fail(exitCode int, code, message string, details any) error {
	_ = f.Error(code, message, details)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

// FailFetch reports an executor error. A QueryError keeps its own code and
// details plus the request identifier; anything else is a backend failure.
func (f *OutputFormatter) FailFetch(err error) error {
	var qe *engine.QueryError
	if !errors.As(err, &qe) {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	details := map[string]string{"identifier": qe.Identifier}
	for k, v := range qe.Details {
		details[k] = v
	}
	return f.Fail(ExitFailure, string(qe.Code), qe.Message, details)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
