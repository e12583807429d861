package filter

import (
	"errors"
	"fmt"

	"github.com/roach88/fetchplan/internal/schema"
)

// Validate checks that every field and join in e is scoped correctly when e
// is evaluated against entity: fields must belong to the entity of their
// scope, and Through descends into the join's target.
//
// Typed filters satisfy this by construction. Validate exists for
// expressions assembled from documents, so a mis-scoped reference is rejected
// when the filter is built rather than when the request is compiled.
//
// Validate is a pure function with no side effects. All problems are
// reported, joined into one error.
func Validate(e Expr, entity *schema.Entity) error {
	v := &validator{}
	v.validate(e, entity)
	return errors.Join(v.problems...)
}

// validator accumulates problems during traversal.
type validator struct {
	problems []error
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *validator) validate(e Expr, entity *schema.Entity) {
	if e == nil {
		return
	}

	switch x := e.(type) {
	case Compare:
		v.validateField(x.Field, entity)
		if x.Field == nil {
			return
		}
		if err := checkNullOp(x.Field, x.Op, x.Value); err != nil {
			v.problems = append(v.problems, err)
		}
	case In:
		v.validateField(x.Field, entity)
	case IsNull:
		v.validateField(x.Field, entity)
	case And:
		for _, child := range x.Exprs {
			v.validate(child, entity)
		}
	case Or:
		for _, child := range x.Exprs {
			v.validate(child, entity)
		}
	case Not:
		v.validate(x.Expr, entity)
	case Through:
		if x.Join == nil {
			v.addProblem("through filter references an unbound join")
			return
		}
		if x.Join.Entity != entity {
			v.addProblem("join %s used in %s scope", x.Join, entity)
			return
		}
		v.validate(x.Expr, x.Join.Target)
	case Custom:
		if x.Resolve == nil {
			v.addProblem("custom filter %q has no resolver", x.Name)
		}
	default:
		v.addProblem("unknown filter type: %T", e)
	}
}

func (v *validator) validateField(f *schema.FieldDef, entity *schema.Entity) {
	if f == nil {
		v.addProblem("filter references an unbound field")
		return
	}
	if f.Entity != entity {
		v.addProblem("field %s used in %s scope", f, entity)
	}
}
