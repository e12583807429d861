package filter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/schema"
)

// Expr is a predicate over one entity type.
//
// This is a sealed interface - only types in this package implement it.
//
// Expr types:
//   - Compare: field <op> literal
//   - In: field IN (literals)
//   - IsNull: field IS NULL
//   - And, Or, Not: boolean combinators
//   - Through: child expression evaluated on a joined entity
//   - Custom: caller-supplied resolver
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "<>"
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpLike Op = "LIKE"
)

// ParseOp maps an operator spelling to an Op. Both symbolic and word forms
// are accepted ("=", "eq", "<>", "!=", "ne", ...).
func ParseOp(s string) (Op, error) {
	switch s {
	case "=", "==", "eq":
		return OpEq, nil
	case "<>", "!=", "ne":
		return OpNe, nil
	case "<", "lt":
		return OpLt, nil
	case "<=", "le", "lte":
		return OpLe, nil
	case ">", "gt":
		return OpGt, nil
	case ">=", "ge", "gte":
		return OpGe, nil
	case "like", "LIKE":
		return OpLike, nil
	}
	return "", fmt.Errorf("unknown comparison operator %q", s)
}

// Compare represents <field> <op> <value>.
//
// Example:
//
//	Compare{Field: userName, Op: OpEq, Value: ir.IRString("alice")}
//
// compiles (at scope alias t0) to:
//
//	t0.name = ?
type Compare struct {
	Field *schema.FieldDef
	Op    Op
	Value ir.IRValue
}

func (Compare) exprNode() {}

// NewCompare builds a Compare after checking that value fits the field's kind.
// Document decoders use it so type mismatches surface when the filter is
// built, not when it is compiled.
func NewCompare(f *schema.FieldDef, op Op, value ir.IRValue) (Compare, error) {
	if err := checkKind(f, value); err != nil {
		return Compare{}, err
	}
	if err := checkNullOp(f, op, value); err != nil {
		return Compare{}, err
	}
	if op == OpLike && f.Kind != schema.KindString {
		return Compare{}, fmt.Errorf("%s: LIKE requires a string field", f)
	}
	return Compare{Field: f, Op: op, Value: value}, nil
}

// In represents <field> IN (<values>). An empty set matches nothing.
type In struct {
	Field  *schema.FieldDef
	Values []ir.IRValue
}

func (In) exprNode() {}

// NewIn builds an In after checking every value against the field's kind.
func NewIn(f *schema.FieldDef, values []ir.IRValue) (In, error) {
	for i, v := range values {
		if err := checkKind(f, v); err != nil {
			return In{}, fmt.Errorf("value[%d]: %w", i, err)
		}
	}
	return In{Field: f, Values: values}, nil
}

// IsNull represents <field> IS NULL.
type IsNull struct {
	Field *schema.FieldDef
}

func (IsNull) exprNode() {}

// And represents a conjunction. Empty Exprs means "always true".
type And struct {
	Exprs []Expr
}

func (And) exprNode() {}

// Or represents a disjunction. Empty Exprs means "always false".
type Or struct {
	Exprs []Expr
}

func (Or) exprNode() {}

// Not negates its child.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// Through evaluates Expr in the scope of the entity reached via Join.
//
// Example (users having a published post):
//
//	Through{Join: userPosts, Expr: Compare{Field: postPublished, Op: OpEq, Value: ir.IRBool(true)}}
type Through struct {
	Join *schema.JoinDef
	Expr Expr
}

func (Through) exprNode() {}

// Resolver builds a predicate from a scope. It must be referentially
// transparent: read the scope, return a predicate, nothing else.
type Resolver func(s Scope) (sq.Sqlizer, error)

// Custom wraps a caller-supplied Resolver. Name identifies it in errors.
type Custom struct {
	Name    string
	Resolve Resolver
}

func (Custom) exprNode() {}

// Conjoin ANDs two expressions, flattening nested Ands and skipping nils.
func Conjoin(a, b Expr) Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	var exprs []Expr
	for _, e := range []Expr{a, b} {
		if and, ok := e.(And); ok {
			exprs = append(exprs, and.Exprs...)
			continue
		}
		exprs = append(exprs, e)
	}
	return And{Exprs: exprs}
}

// checkKind verifies a literal fits the field. IRNull fits any field.
// checkNullOp rejects a NULL literal under any operator but = and <>, which
// render as IS NULL and IS NOT NULL.
func checkNullOp(f *schema.FieldDef, op Op, v ir.IRValue) error {
	if ir.IsNull(v) && op != OpEq && op != OpNe {
		return fmt.Errorf("%s: NULL cannot be compared with %s, use IsNull", f, op)
	}
	return nil
}

func checkKind(f *schema.FieldDef, v ir.IRValue) error {
	if f == nil {
		return fmt.Errorf("filter references an unbound field")
	}
	var ok bool
	switch v.(type) {
	case ir.IRNull, nil:
		ok = true
	case ir.IRString:
		ok = f.Kind == schema.KindString
	case ir.IRInt:
		ok = f.Kind == schema.KindInt
	case ir.IRBool:
		ok = f.Kind == schema.KindBool
	}
	if !ok {
		return fmt.Errorf("%s: %T literal does not match field kind %s", f, v, f.Kind)
	}
	return nil
}
