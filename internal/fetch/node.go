package fetch

import (
	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/schema"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Sort is one ORDER BY key of a node.
type Sort struct {
	Field *schema.FieldDef
	Dir   Direction
}

// Node is one node of the fetch request tree.
type Node struct {
	entity *schema.Entity

	fields   []*schema.FieldDef
	selected map[*schema.FieldDef]bool

	joins    []*schema.JoinDef
	children map[*schema.JoinDef]*Node

	filter filter.Expr
	sorts  []Sort
}

func newNode(e *schema.Entity) *Node {
	return &Node{
		entity:   e,
		selected: make(map[*schema.FieldDef]bool),
		children: make(map[*schema.JoinDef]*Node),
	}
}

// Entity returns the entity this node fetches.
func (n *Node) Entity() *schema.Entity { return n.entity }

// Select adds fields to the selection. Fields already selected are ignored.
func (n *Node) Select(fields ...*schema.FieldDef) *Node {
	for _, f := range fields {
		if n.selected[f] {
			continue
		}
		n.selected[f] = true
		n.fields = append(n.fields, f)
	}
	return n
}

// Join returns the child node for j, creating it on first use, and runs
// each configurator on it. Calling Join again with the same j returns the
// same child, so configurators compose.
func (n *Node) Join(j *schema.JoinDef, configure ...func(*Node)) *Node {
	child, ok := n.children[j]
	if !ok {
		var target *schema.Entity
		if j != nil {
			target = j.Target
		}
		child = newNode(target)
		n.children[j] = child
		n.joins = append(n.joins, j)
	}
	for _, cfg := range configure {
		if cfg != nil {
			cfg(child)
		}
	}
	return child
}

// Where ANDs e into the node's filter.
func (n *Node) Where(e filter.Expr) *Node {
	n.filter = filter.Conjoin(n.filter, e)
	return n
}

// OrderBy appends a sort key. The first call is the primary key.
func (n *Node) OrderBy(f *schema.FieldDef, dir Direction) *Node {
	n.sorts = append(n.sorts, Sort{Field: f, Dir: dir})
	return n
}

// Fields returns the selected fields in first-selected order.
func (n *Node) Fields() []*schema.FieldDef { return n.fields }

// Joins returns the joined relations in first-joined order.
func (n *Node) Joins() []*schema.JoinDef { return n.joins }

// Child returns the child node for j.
func (n *Node) Child(j *schema.JoinDef) (*Node, bool) {
	c, ok := n.children[j]
	return c, ok
}

// Filter returns the node's filter, or nil.
func (n *Node) Filter() filter.Expr { return n.filter }

// Sorts returns the node's sort keys in declaration order.
func (n *Node) Sorts() []Sort { return n.sorts }

// HasCollection reports whether any join in the subtree is collection-valued.
func (n *Node) HasCollection() bool {
	for _, j := range n.joins {
		if j != nil && j.Cardinality == schema.Many {
			return true
		}
		if n.children[j].HasCollection() {
			return true
		}
	}
	return false
}

// Request is a fetch request: a root node plus root-only settings.
type Request struct {
	root *Node

	paged  bool
	offset uint64
	limit  uint64

	countTotal bool
}

// NewRequest starts a request rooted at entity e.
func NewRequest(e *schema.Entity) *Request {
	return &Request{root: newNode(e)}
}

// Root returns the root node.
func (r *Request) Root() *Node { return r.root }

// Page bounds the result to limit root entities after skipping offset.
func (r *Request) Page(offset, limit uint64) *Request {
	r.paged = true
	r.offset = offset
	r.limit = limit
	return r
}

// Pagination returns the bounds set by Page; ok is false if none were set.
func (r *Request) Pagination() (offset, limit uint64, ok bool) {
	return r.offset, r.limit, r.paged
}

// WithTotalCount asks for the total number of matching root entities,
// ignoring pagination.
func (r *Request) WithTotalCount(on bool) *Request {
	r.countTotal = on
	return r
}

// CountTotal reports whether a total count was requested.
func (r *Request) CountTotal() bool { return r.countTotal }
