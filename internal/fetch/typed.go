package fetch

import (
	"github.com/roach88/fetchplan/internal/schema"
	"github.com/roach88/fetchplan/internal/where"
)

// NodeOf is a typed view of a Node fetching entity E.
type NodeOf[E any] struct {
	n *Node
}

// Node returns the untyped node.
func (n NodeOf[E]) Node() *Node { return n.n }

// Select adds fields of E to the selection.
func (n NodeOf[E]) Select(fields ...schema.AnyField[E]) NodeOf[E] {
	for _, f := range fields {
		n.n.Select(f.Def())
	}
	return n
}

// Where ANDs f into the node's filter.
func (n NodeOf[E]) Where(f where.Filter[E]) NodeOf[E] {
	n.n.Where(f.Expr())
	return n
}

// OrderBy appends a sort key on a field of E.
func (n NodeOf[E]) OrderBy(f schema.AnyField[E], dir Direction) NodeOf[E] {
	n.n.OrderBy(f.Def(), dir)
	return n
}

// Join returns the child node for j, creating it on first use, and runs
// each configurator on it.
func Join[E, F any](n NodeOf[E], j schema.Join[E, F], configure ...func(NodeOf[F])) NodeOf[F] {
	child := n.n.Join(j.Def())
	typed := NodeOf[F]{n: child}
	for _, cfg := range configure {
		if cfg != nil {
			cfg(typed)
		}
	}
	return typed
}

// RequestOf is a typed request rooted at entity E.
// Node methods (Select, Where, OrderBy) apply to the root.
type RequestOf[E any] struct {
	NodeOf[E]
	r *Request
}

// New starts a typed request rooted at et.
func New[E any](et schema.EntityType[E]) *RequestOf[E] {
	r := NewRequest(et.Def())
	return &RequestOf[E]{NodeOf: NodeOf[E]{n: r.root}, r: r}
}

// Root returns the typed root node.
func (r *RequestOf[E]) Root() NodeOf[E] { return r.NodeOf }

// Page bounds the result to limit root entities after skipping offset.
func (r *RequestOf[E]) Page(offset, limit uint64) *RequestOf[E] {
	r.r.Page(offset, limit)
	return r
}

// WithTotalCount asks for the total number of matching root entities.
func (r *RequestOf[E]) WithTotalCount(on bool) *RequestOf[E] {
	r.r.WithTotalCount(on)
	return r
}

// Untyped returns the underlying request.
func (r *RequestOf[E]) Untyped() *Request { return r.r }
