package filter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/schema"
)

// Scope is an entity context positioned at one join path.
// It is implemented by the query compiler; custom resolvers see only this
// surface.
type Scope interface {
	// Entity returns the entity type reachable at this scope.
	Entity() *schema.Entity

	// Column returns the alias-qualified column for f, e.g. "t1.title".
	// f must belong to Entity().
	Column(f *schema.FieldDef) (string, error)

	// Join returns the scope of the entity reached via j, reusing the
	// backend join if this path was joined before.
	Join(j *schema.JoinDef) (Scope, error)
}

// sqlTrue and sqlFalse are the identities of And and Or.
var (
	sqlTrue  = sq.Expr("1 = 1")
	sqlFalse = sq.Expr("1 = 0")
)

// Apply compiles e in scope s.
func Apply(e Expr, s Scope) (sq.Sqlizer, error) {
	if e == nil {
		return sqlTrue, nil // Always true
	}

	switch x := e.(type) {
	case Compare:
		return applyCompare(x, s)
	case In:
		return applyIn(x, s)
	case IsNull:
		col, err := s.Column(x.Field)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: nil}, nil
	case And:
		if len(x.Exprs) == 0 {
			return sqlTrue, nil // vacuous truth
		}
		parts, err := applyAll(x.Exprs, s)
		if err != nil {
			return nil, err
		}
		return sq.And(parts), nil
	case Or:
		if len(x.Exprs) == 0 {
			return sqlFalse, nil // empty disjunction
		}
		parts, err := applyAll(x.Exprs, s)
		if err != nil {
			return nil, err
		}
		return sq.Or(parts), nil
	case Not:
		inner, err := Apply(x.Expr, s)
		if err != nil {
			return nil, err
		}
		return not{inner: inner}, nil
	case Through:
		child, err := s.Join(x.Join)
		if err != nil {
			return nil, err
		}
		return Apply(x.Expr, child)
	case Custom:
		if x.Resolve == nil {
			return nil, fmt.Errorf("custom filter %q has no resolver", x.Name)
		}
		pred, err := x.Resolve(s)
		if err != nil {
			return nil, fmt.Errorf("custom filter %q: %w", x.Name, err)
		}
		return pred, nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %T", e)
	}
}

func applyAll(exprs []Expr, s Scope) ([]sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(exprs))
	for _, e := range exprs {
		p, err := Apply(e, s)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// applyCompare compiles a Compare. Values are never interpolated.
func applyCompare(c Compare, s Scope) (sq.Sqlizer, error) {
	col, err := s.Column(c.Field)
	if err != nil {
		return nil, err
	}
	if err := checkNullOp(c.Field, c.Op, c.Value); err != nil {
		return nil, err
	}
	param, err := ir.Param(c.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Field, err)
	}

	switch c.Op {
	case OpEq:
		return sq.Eq{col: param}, nil
	case OpNe:
		return sq.NotEq{col: param}, nil
	case OpLt:
		return sq.Lt{col: param}, nil
	case OpLe:
		return sq.LtOrEq{col: param}, nil
	case OpGt:
		return sq.Gt{col: param}, nil
	case OpGe:
		return sq.GtOrEq{col: param}, nil
	case OpLike:
		return sq.Like{col: param}, nil
	default:
		return nil, fmt.Errorf("%s: unsupported operator %q", c.Field, c.Op)
	}
}

func applyIn(in In, s Scope) (sq.Sqlizer, error) {
	col, err := s.Column(in.Field)
	if err != nil {
		return nil, err
	}
	if len(in.Values) == 0 {
		return sqlFalse, nil
	}
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		p, err := ir.Param(v)
		if err != nil {
			return nil, fmt.Errorf("%s value[%d]: %w", in.Field, i, err)
		}
		params[i] = p
	}
	return sq.Eq{col: params}, nil
}

// not wraps a predicate in NOT (...).
type not struct {
	inner sq.Sqlizer
}

func (n not) ToSql() (string, []any, error) {
	sql, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("NOT (%s)", sql), args, nil
}
