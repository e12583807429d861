package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fetchplan/internal/compiler"
	"github.com/roach88/fetchplan/internal/schema"
)

// LoadResult contains the results of loading a schema directory.
type LoadResult struct {
	Entities  []schema.EntitySpec
	Registry  *schema.Registry // nil if any entity failed to compile or validate
	CUEValue  cue.Value        // The raw CUE value for additional processing
	FileCount int              // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema loads, compiles and validates the CUE entity definitions in
// dir. All entity errors are collected. A nil result means the directory
// itself could not be loaded.
func LoadSchema(dir string) (*LoadResult, []error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, _, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeLoadFailed)}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no entities found in schema"}}
	}
	iter, err := entitiesVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entities: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		spec, compileErr := compiler.CompileEntity(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, ErrCodeGeneric))
			continue
		}
		for _, verr := range compiler.Validate(spec) {
			errs = append(errs, &LoadError{Code: verr.Code, Message: verr.Error()})
		}
		result.Entities = append(result.Entities, *spec)
	}
	if len(errs) > 0 {
		return result, errs
	}

	reg, err := schema.Build(result.Entities...)
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeDefinition, Message: err.Error()}}
	}
	result.Registry = reg
	return result, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field, fallback),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeDefinition  = "E006" // Registry build failed (cross-entity checks)
	ErrCodeRequest     = "E007" // Request document rejected
	ErrCodeDatabase    = "E008" // Database open or query failure
	ErrCodeSchemaDrift = "E009" // Mapped table or column missing from the database

	// Entity definition errors
	ErrCodeEntityTable = compiler.ErrEntityTableEmpty
	ErrCodeNoFields    = compiler.ErrEntityNoFields
	ErrCodeInvalidType = compiler.ErrInvalidFieldKind
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field, fallback string) string {
	switch field {
	case "table":
		return ErrCodeEntityTable
	case "field":
		return ErrCodeNoFields
	case "type":
		return ErrCodeInvalidType
	default:
		return fallback
	}
}
