package hydrate

import (
	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/schema"
)

// RowOf is a typed view of a Row holding entity E.
type RowOf[E any] struct {
	*Row
}

// As wraps untyped rows.
func As[E any](rows []*Row) []RowOf[E] {
	out := make([]RowOf[E], len(rows))
	for i, r := range rows {
		out[i] = RowOf[E]{Row: r}
	}
	return out
}

// Get returns the value of f. ok is false if f was not selected or is NULL.
func Get[E any, T ir.Scalar](r RowOf[E], f schema.Field[E, T]) (T, bool) {
	v, ok := r.Row.Get(f.Def())
	if !ok {
		var zero T
		return zero, false
	}
	return ir.ToScalar[T](v)
}

// GetJoin returns the child of a singular join. ok is false if the related
// entity is absent or j was not requested as a singular join.
func GetJoin[E, F any](r RowOf[E], j schema.Join[E, F]) (RowOf[F], bool) {
	child, err := r.Row.Join(j.Def())
	if err != nil || child == nil {
		return RowOf[F]{}, false
	}
	return RowOf[F]{Row: child}, true
}

// GetJoinSet returns the children of a collection join, or nil if j was not
// requested as a collection join.
func GetJoinSet[E, F any](r RowOf[E], j schema.Join[E, F]) []RowOf[F] {
	children, err := r.Row.JoinSet(j.Def())
	if err != nil {
		return nil
	}
	return As[F](children)
}
