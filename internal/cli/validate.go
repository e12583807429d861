package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchplan/internal/schema"
	"github.com/roach88/fetchplan/internal/store"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Entities []EntitySummary `json:"entities,omitempty"`
	Errors   []Problem       `json:"errors,omitempty"`
}

// EntitySummary describes one registered entity.
type EntitySummary struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Fields int    `json:"fields"`
	Joins  int    `json:"joins"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema-dir]",
		Short: "Validate CUE entity definitions",
		Long: `Compile and validate CUE entity definitions.

Reports every problem found: missing keys, unsupported field types,
identifiers that are not plain SQL names, unknown join targets.
With --db, also checks that every mapped table and column exists.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.settings().SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadSchema(schemaDir)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil {
		code, message := parseLoadError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaDir)

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, loadErrors)
	}

	if db := opts.settings().Database; db != "" {
		formatter.VerboseLog("Checking mappings against %s", db)
		if err := checkDatabase(cmd.Context(), db, loadResult.Registry); err != nil {
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				return formatter.Fail(exitErr.Code, ErrCodeDatabase, exitErr.Error(), nil)
			}
			return outputValidationErrors(formatter, driftErrors(err))
		}
	}

	return outputValidateSuccess(formatter, loadResult.Registry)
}

// checkDatabase opens db and checks reg against it. Open failures come back
// as ExitErrors; mapping drift comes back as the joined definition errors.
func checkDatabase(ctx context.Context, db string, reg *schema.Registry) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer st.Close()
	return st.CheckRegistry(ctx, reg)
}

// driftErrors splits a joined CheckRegistry error into LoadErrors.
func driftErrors(err error) []error {
	var out []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, &LoadError{Code: ErrCodeSchemaDrift, Message: e.Error()})
		}
		return out
	}
	return []error{&LoadError{Code: ErrCodeSchemaDrift, Message: err.Error()}}
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// summarize lists the entities of reg in registration order.
func summarize(reg *schema.Registry) []EntitySummary {
	entities := reg.Entities()
	out := make([]EntitySummary, len(entities))
	for i, e := range entities {
		out[i] = EntitySummary{
			Name:   e.Name,
			Table:  e.Table,
			Fields: len(e.Fields()),
			Joins:  len(e.Joins()),
		}
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, reg *schema.Registry) error {
	entities := summarize(reg)
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Entities: entities})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid: %d entity(ies)\n\n", len(entities))
	for _, e := range entities {
		fmt.Fprintf(formatter.Writer, "  %s (%s): %d field(s), %d join(s)\n", e.Name, e.Table, e.Fields, e.Joins)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []error) error {
	problems := make([]Problem, len(errs))
	for i, err := range errs {
		code, message := parseLoadError(err)
		problems[i] = Problem{Code: code, Message: message}
	}

	if formatter.Format == "json" {
		response := Envelope{
			Status: StatusError,
			Data:   ValidationResult{Valid: false, Errors: problems},
			Error:  &problems[0],
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		code, message := parseLoadError(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
