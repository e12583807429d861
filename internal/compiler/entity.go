package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/fetchplan/internal/schema"
)

// CompileEntity parses a CUE value into an EntitySpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: User: { ... }`)
//	spec, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.User")))
func CompileEntity(v cue.Value) (*schema.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &schema.EntitySpec{}

	// Entity name is the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	table, err := requiredString(v, "table")
	if err != nil {
		return nil, err
	}
	spec.Table = table

	key, err := requiredString(v, "key")
	if err != nil {
		return nil, err
	}
	spec.Key = key

	spec.Fields, err = parseFields(v)
	if err != nil {
		return nil, err
	}
	if len(spec.Fields) == 0 {
		return nil, &CompileError{
			Field:   "field",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}

	spec.Joins, err = parseJoins(v)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// CompileEntities compiles every entity under the top-level "entity" struct,
// in declaration order.
func CompileEntities(v cue.Value) ([]schema.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entities defined",
			Pos:     v.Pos(),
		}
	}

	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []schema.EntitySpec
	for iter.Next() {
		spec, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileRegistry compiles, validates and registers every entity in v.
// Validation problems are all reported, joined into one error.
func CompileRegistry(v cue.Value) (*schema.Registry, error) {
	specs, err := CompileEntities(v)
	if err != nil {
		return nil, err
	}

	var problems []error
	for i := range specs {
		for _, verr := range Validate(&specs[i]) {
			problems = append(problems, verr)
		}
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	return schema.Build(specs...)
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// parseFields extracts field definitions. A field is either a bare type
// (`name: string`) or a struct with type and column.
func parseFields(v cue.Value) ([]schema.FieldSpec, error) {
	fieldVal := v.LookupPath(cue.ParsePath("field"))
	if !fieldVal.Exists() {
		return nil, nil
	}

	iter, err := fieldVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []schema.FieldSpec
	for iter.Next() {
		name := iter.Label()
		fv := iter.Value()
		field := schema.FieldSpec{Name: name}

		typeVal := fv
		if fv.IncompleteKind() == cue.StructKind {
			typeVal = fv.LookupPath(cue.ParsePath("type"))
			if !typeVal.Exists() {
				return nil, &CompileError{
					Field:   fmt.Sprintf("field.%s.type", name),
					Message: "field type is required",
					Pos:     fv.Pos(),
				}
			}
			colVal := fv.LookupPath(cue.ParsePath("column"))
			if colVal.Exists() {
				col, err := colVal.String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				field.Column = col
			}
		}

		kind, err := extractKind(typeVal)
		if err != nil {
			return nil, err
		}
		field.Kind = kind
		fields = append(fields, field)
	}
	return fields, nil
}

// parseJoins extracts join definitions.
func parseJoins(v cue.Value) ([]schema.JoinSpec, error) {
	joinVal := v.LookupPath(cue.ParsePath("join"))
	if !joinVal.Exists() {
		return nil, nil
	}

	iter, err := joinVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var joins []schema.JoinSpec
	for iter.Next() {
		name := iter.Label()
		jv := iter.Value()
		join := schema.JoinSpec{Name: name}

		if join.Target, err = requiredString(jv, "target"); err != nil {
			return nil, err
		}
		if join.LocalColumn, err = requiredString(jv, "local"); err != nil {
			return nil, err
		}
		if join.TargetColumn, err = requiredString(jv, "remote"); err != nil {
			return nil, err
		}

		card := "one"
		if cv := jv.LookupPath(cue.ParsePath("cardinality")); cv.Exists() {
			if card, err = cv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		switch card {
		case "one":
			join.Cardinality = schema.One
		case "many":
			join.Cardinality = schema.Many
		default:
			return nil, &CompileError{
				Field:   fmt.Sprintf("join.%s.cardinality", name),
				Message: fmt.Sprintf("cardinality must be \"one\" or \"many\", got %q", card),
				Pos:     jv.Pos(),
			}
		}

		joins = append(joins, join)
	}
	return joins, nil
}

// extractKind converts a CUE type to a field kind.
// Floats are forbidden: SQLite REAL columns do not round-trip exactly.
func extractKind(v cue.Value) (schema.Kind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return schema.KindString, nil
	case cue.IntKind:
		return schema.KindInt, nil
	case cue.BoolKind:
		return schema.KindBool, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "type",
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}
