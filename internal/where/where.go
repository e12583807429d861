// Package where builds typed filters.
//
// A Filter[E] is a filter.Expr that is known to apply to entity E. Field and
// join handles carry their entity and value types, so
//
//	where.Eq(blog.UserName, 42)
//
// does not compile, and neither does a Through whose inner filter targets
// anything other than the join's destination.
package where

import (
	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/schema"
)

// Filter is a predicate over entity E.
type Filter[E any] struct {
	expr filter.Expr
}

// Expr returns the untyped expression.
func (f Filter[E]) Expr() filter.Expr { return f.expr }

func compare[E any, T ir.Scalar](f schema.Field[E, T], op filter.Op, v T) Filter[E] {
	return Filter[E]{expr: filter.Compare{Field: f.Def(), Op: op, Value: ir.FromScalar(v)}}
}

// Eq matches rows where f = v.
func Eq[E any, T ir.Scalar](f schema.Field[E, T], v T) Filter[E] { return compare(f, filter.OpEq, v) }

// Ne matches rows where f <> v.
func Ne[E any, T ir.Scalar](f schema.Field[E, T], v T) Filter[E] { return compare(f, filter.OpNe, v) }

// Lt matches rows where f < v.
func Lt[E any, T ir.Scalar](f schema.Field[E, T], v T) Filter[E] { return compare(f, filter.OpLt, v) }

// Le matches rows where f <= v.
func Le[E any, T ir.Scalar](f schema.Field[E, T], v T) Filter[E] { return compare(f, filter.OpLe, v) }

// Gt matches rows where f > v.
func Gt[E any, T ir.Scalar](f schema.Field[E, T], v T) Filter[E] { return compare(f, filter.OpGt, v) }

// Ge matches rows where f >= v.
func Ge[E any, T ir.Scalar](f schema.Field[E, T], v T) Filter[E] { return compare(f, filter.OpGe, v) }

// Like matches a SQL LIKE pattern.
func Like[E any](f schema.Field[E, string], pattern string) Filter[E] {
	return compare(f, filter.OpLike, pattern)
}

// In matches rows where f is one of vs. No values matches nothing.
func In[E any, T ir.Scalar](f schema.Field[E, T], vs ...T) Filter[E] {
	values := make([]ir.IRValue, len(vs))
	for i, v := range vs {
		values[i] = ir.FromScalar(v)
	}
	return Filter[E]{expr: filter.In{Field: f.Def(), Values: values}}
}

// IsNull matches rows where f is NULL.
func IsNull[E any, T ir.Scalar](f schema.Field[E, T]) Filter[E] {
	return Filter[E]{expr: filter.IsNull{Field: f.Def()}}
}

// NotNull matches rows where f is not NULL.
func NotNull[E any, T ir.Scalar](f schema.Field[E, T]) Filter[E] {
	return Not(IsNull(f))
}

// And matches rows satisfying every filter. And() matches everything.
func And[E any](fs ...Filter[E]) Filter[E] {
	return Filter[E]{expr: filter.And{Exprs: exprs(fs)}}
}

// Or matches rows satisfying any filter. Or() matches nothing.
func Or[E any](fs ...Filter[E]) Filter[E] {
	return Filter[E]{expr: filter.Or{Exprs: exprs(fs)}}
}

// Not negates f.
func Not[E any](f Filter[E]) Filter[E] {
	return Filter[E]{expr: filter.Not{Expr: f.expr}}
}

// Through applies inner to the entity reached via j.
func Through[E, F any](j schema.Join[E, F], inner Filter[F]) Filter[E] {
	return Filter[E]{expr: filter.Through{Join: j.Def(), Expr: inner.expr}}
}

// Custom wraps a resolver the algebra cannot express.
func Custom[E any](name string, resolve filter.Resolver) Filter[E] {
	return Filter[E]{expr: filter.Custom{Name: name, Resolve: resolve}}
}

func exprs[E any](fs []Filter[E]) []filter.Expr {
	out := make([]filter.Expr, len(fs))
	for i, f := range fs {
		out[i] = f.expr
	}
	return out
}
