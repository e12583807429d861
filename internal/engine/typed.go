package engine

import (
	"context"

	"github.com/roach88/fetchplan/internal/fetch"
	"github.com/roach88/fetchplan/internal/hydrate"
)

// ListOf is a typed list result.
type ListOf[E any] struct {
	Rows    []hydrate.RowOf[E]
	Total   int64
	Counted bool
}

// FetchList runs a typed list request.
func FetchList[E any](ctx context.Context, e *Executor, q Querier, req *fetch.RequestOf[E]) (*ListOf[E], error) {
	res, err := e.List(ctx, q, req.Untyped())
	if err != nil {
		return nil, err
	}
	return &ListOf[E]{
		Rows:    hydrate.As[E](res.Rows),
		Total:   res.Total,
		Counted: res.Counted,
	}, nil
}

// FetchUnique runs a typed unique request. ok is false when nothing matched.
func FetchUnique[E any](ctx context.Context, e *Executor, q Querier, req *fetch.RequestOf[E]) (hydrate.RowOf[E], bool, error) {
	row, ok, err := e.Unique(ctx, q, req.Untyped())
	if err != nil || !ok {
		return hydrate.RowOf[E]{}, false, err
	}
	return hydrate.RowOf[E]{Row: row}, true, nil
}
