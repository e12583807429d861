package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/fetchplan/internal/schema"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value for validation

	// Entity errors (E101-E109)
	ErrEntityTableEmpty  = "E101" // table is required
	ErrEntityNoFields    = "E102" // at least one field required
	ErrEntityKeyMissing  = "E103" // key must name a field
	ErrInvalidFieldKind  = "E104" // invalid kind
	ErrDuplicateName     = "E105" // duplicate field/join name
	ErrInvalidIdentifier = "E107" // table or column is not a plain SQL identifier
	ErrNameCollision     = "E108" // join name shadows a field

	// Join errors (E110-E119)
	ErrJoinTargetEmpty  = "E110" // join target is required
	ErrJoinColumnsEmpty = "E111" // local and remote columns required
)

// ValidationError represents a definition validation error.
type ValidationError struct {
	Entity  string `json:"entity,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// identifierPattern matches SQL identifiers that need no quoting.
// Table and column names are written into SQL verbatim.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks an entity definition before registration.
// Returns all errors found (does not fail-fast).
// Cross-entity checks (join targets exist) happen in schema.Build.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *schema.EntitySpec:
		return validateEntitySpec(spec)
	case schema.EntitySpec:
		return validateEntitySpec(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported definition type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateEntitySpec(spec *schema.EntitySpec) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Entity:  spec.Name,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	// E101: table is required
	if strings.TrimSpace(spec.Table) == "" {
		add("table", ErrEntityTableEmpty, "table is required and must be non-empty")
	} else if !identifierPattern.MatchString(spec.Table) {
		add("table", ErrInvalidIdentifier, "table %q is not a plain SQL identifier", spec.Table)
	}

	// E102: at least one field
	if len(spec.Fields) == 0 {
		add("fields", ErrEntityNoFields, "at least one field is required")
	}

	fieldNames := make(map[string]bool)
	for i, f := range spec.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		if fieldNames[f.Name] {
			add(path+".name", ErrDuplicateName, "duplicate field name: %q", f.Name)
		}
		fieldNames[f.Name] = true

		col := f.Column
		if col == "" {
			col = f.Name
		}
		if !identifierPattern.MatchString(col) {
			add(path+".column", ErrInvalidIdentifier, "column %q is not a plain SQL identifier", col)
		}

		switch f.Kind {
		case schema.KindString, schema.KindInt, schema.KindBool:
		default:
			add(path+".kind", ErrInvalidFieldKind, "invalid kind %q for field %q", f.Kind, f.Name)
		}
	}

	// E103: key must name a declared field
	if !fieldNames[spec.Key] {
		add("key", ErrEntityKeyMissing, "key %q does not name a declared field", spec.Key)
	}

	joinNames := make(map[string]bool)
	for i, j := range spec.Joins {
		path := fmt.Sprintf("joins[%d]", i)
		if joinNames[j.Name] {
			add(path+".name", ErrDuplicateName, "duplicate join name: %q", j.Name)
		}
		joinNames[j.Name] = true

		if fieldNames[j.Name] {
			add(path+".name", ErrNameCollision, "join %q shadows a field", j.Name)
		}
		if strings.TrimSpace(j.Target) == "" {
			add(path+".target", ErrJoinTargetEmpty, "join %q requires a target entity", j.Name)
		}
		if j.LocalColumn == "" || j.TargetColumn == "" {
			add(path, ErrJoinColumnsEmpty, "join %q requires local and remote columns", j.Name)
			continue
		}
		for _, col := range []string{j.LocalColumn, j.TargetColumn} {
			if !identifierPattern.MatchString(col) {
				add(path, ErrInvalidIdentifier, "column %q is not a plain SQL identifier", col)
			}
		}
	}

	return errs
}
