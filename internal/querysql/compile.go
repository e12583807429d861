package querysql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/fetchplan/internal/fetch"
	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/hydrate"
	"github.com/roach88/fetchplan/internal/schema"
)

// Mode selects how a request is executed.
type Mode int

const (
	// List honors pagination and the total-count flag.
	List Mode = iota

	// Unique ignores pagination and counting; the caller expects at most
	// one root entity.
	Unique
)

func (m Mode) String() string {
	if m == Unique {
		return "unique"
	}
	return "list"
}

// Plan is a compiled fetch request.
type Plan struct {
	Mode Mode

	// Query selects the rows to hydrate.
	Query sq.SelectBuilder

	// Count selects the total number of matching root entities. It is nil
	// unless the request asked for a total in List mode.
	Count *sq.SelectBuilder

	// Shape maps Query's columns back onto the fetch tree.
	Shape *hydrate.Shape

	// Joins is the number of backend joins in Query.
	Joins int
}

// SQL renders Query.
func (p *Plan) SQL() (string, []any, error) {
	return p.Query.ToSql()
}

// CountSQL renders Count. ok is false when no count was requested.
func (p *Plan) CountSQL() (query string, args []any, ok bool, err error) {
	if p.Count == nil {
		return "", nil, false, nil
	}
	query, args, err = p.Count.ToSql()
	return query, args, err == nil, err
}

type orderTerm struct {
	col string
	dir fetch.Direction
}

func (t orderTerm) String() string { return t.col + " " + t.dir.String() }

// compiler accumulates one SELECT while walking the fetch tree.
type compiler struct {
	ctx *Context

	cols  []string
	where []sq.Sqlizer

	groups []*sortGroup
}

// sortGroup orders the rows of one root or collection node: the node's
// sort keys, those of its singular-join descendants, then its key.
type sortGroup struct {
	terms []orderTerm
	key   orderTerm
}

// Compile walks req depth-first and builds one query for it.
//
// Field, join and filter references are resolved through a fresh Context;
// any reference that the registry does not own, or that is used outside the
// scope of its entity, fails with a *ConfigError before SQL is produced.
func Compile(reg *schema.Registry, req *fetch.Request, mode Mode) (*Plan, error) {
	if req == nil {
		return nil, fmt.Errorf("cannot compile nil request")
	}
	root := req.Root()

	ctx, err := NewContext(reg, root.Entity(), "t")
	if err != nil {
		return nil, err
	}
	c := &compiler{ctx: ctx}

	shape, err := c.walk(root, ctx.Root(), nil, nil)
	if err != nil {
		return nil, err
	}
	rootKey := keyColumn(ctx.Root())

	b := ctx.from(sq.Select(c.cols...).PlaceholderFormat(sq.Question))
	for _, pred := range c.where {
		b = b.Where(pred)
	}

	plan := &Plan{Mode: mode, Shape: shape, Joins: ctx.JoinCount()}

	offset, limit, paged := req.Pagination()
	if mode == List && paged {
		if limit == 0 {
			return nil, &ConfigError{Identifier: root.Entity().Name, Message: "pagination limit must be positive"}
		}
		// A collection join multiplies root rows, whether it was selected or
		// only reached by a filter.
		if ctx.hasMany() {
			sub, err := pageSubquery(reg, req, offset, limit)
			if err != nil {
				return nil, err
			}
			subSQL, subArgs, err := sub.ToSql()
			if err != nil {
				return nil, fmt.Errorf("render page subquery: %w", err)
			}
			b = b.Where(sq.Expr(fmt.Sprintf("%s IN (%s)", rootKey, subSQL), subArgs...))
		} else {
			b = b.Limit(limit).Offset(offset)
		}
	}

	var terms []orderTerm
	for _, g := range c.groups {
		terms = append(terms, g.terms...)
		terms = append(terms, g.key)
	}
	b = b.OrderBy(orderBy(terms)...)
	plan.Query = b

	if mode == List && req.CountTotal() {
		count, err := countQuery(reg, req)
		if err != nil {
			return nil, err
		}
		plan.Count = &count
	}
	return plan, nil
}

func (c *compiler) project(col string) int {
	c.cols = append(c.cols, col)
	return len(c.cols) - 1
}

// walk compiles node n at scope s. via is the join that reached n and g the
// sort group of its parent.
func (c *compiler) walk(n *fetch.Node, s *Scope, via *schema.JoinDef, g *sortGroup) (*hydrate.Shape, error) {
	ent := s.Entity()
	keyCol, err := s.Column(ent.Key())
	if err != nil {
		return nil, err
	}
	shape := &hydrate.Shape{Entity: ent, Join: via, KeyIndex: c.project(keyCol)}

	for _, f := range n.Fields() {
		if f != nil && f == ent.Key() {
			shape.Fields = append(shape.Fields, hydrate.Slot{Field: f, Index: shape.KeyIndex})
			continue
		}
		col, err := s.Column(f)
		if err != nil {
			return nil, err
		}
		shape.Fields = append(shape.Fields, hydrate.Slot{Field: f, Index: c.project(col)})
	}

	if n.Filter() != nil {
		pred, err := filter.Apply(n.Filter(), s)
		if err != nil {
			return nil, err
		}
		c.where = append(c.where, pred)
	}

	if via == nil || via.Cardinality == schema.Many {
		g = &sortGroup{key: orderTerm{col: keyCol, dir: fetch.Asc}}
		c.groups = append(c.groups, g)
	}
	terms, err := sortTerms(n, s)
	if err != nil {
		return nil, err
	}
	g.terms = append(g.terms, terms...)

	for _, j := range n.Joins() {
		child, _ := n.Child(j)
		cs, err := c.ctx.ResolveJoin(s, j)
		if err != nil {
			return nil, err
		}
		cshape, err := c.walk(child, cs, j, g)
		if err != nil {
			return nil, err
		}
		shape.Children = append(shape.Children, cshape)
	}
	return shape, nil
}

func keyColumn(s *Scope) string {
	return s.Alias() + "." + s.Entity().Key().Column
}

func sortTerms(n *fetch.Node, s *Scope) ([]orderTerm, error) {
	terms := make([]orderTerm, 0, len(n.Sorts()))
	for _, srt := range n.Sorts() {
		col, err := s.Column(srt.Field)
		if err != nil {
			return nil, err
		}
		terms = append(terms, orderTerm{col: col, dir: srt.Dir})
	}
	return terms, nil
}

// orderBy renders terms, keeping the first term for each column.
func orderBy(terms []orderTerm) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range terms {
		if seen[t.col] {
			continue
		}
		seen[t.col] = true
		out = append(out, t.String())
	}
	return out
}

// rootSorts resolves the sort keys of the root group in ctx: those of the
// root and of nodes reached from it through singular joins only.
func rootSorts(ctx *Context, n *fetch.Node, s *Scope) ([]orderTerm, error) {
	terms, err := sortTerms(n, s)
	if err != nil {
		return nil, err
	}
	for _, j := range n.Joins() {
		if j == nil || j.Cardinality != schema.One {
			continue
		}
		child, _ := n.Child(j)
		if !hasSingularSorts(child) {
			continue
		}
		cs, err := ctx.ResolveJoin(s, j)
		if err != nil {
			return nil, err
		}
		more, err := rootSorts(ctx, child, cs)
		if err != nil {
			return nil, err
		}
		terms = append(terms, more...)
	}
	return terms, nil
}

func hasSingularSorts(n *fetch.Node) bool {
	if len(n.Sorts()) > 0 {
		return true
	}
	for _, j := range n.Joins() {
		if j == nil || j.Cardinality != schema.One {
			continue
		}
		child, _ := n.Child(j)
		if hasSingularSorts(child) {
			return true
		}
	}
	return false
}

// filterOnly applies every filter of the tree in a fresh context, creating
// only the joins those filters need.
func filterOnly(reg *schema.Registry, req *fetch.Request, prefix string) (*Context, []sq.Sqlizer, error) {
	ctx, err := NewContext(reg, req.Root().Entity(), prefix)
	if err != nil {
		return nil, nil, err
	}
	var preds []sq.Sqlizer
	var visit func(n *fetch.Node, s *Scope) error
	visit = func(n *fetch.Node, s *Scope) error {
		if n.Filter() != nil {
			pred, err := filter.Apply(n.Filter(), s)
			if err != nil {
				return err
			}
			preds = append(preds, pred)
		}
		for _, j := range n.Joins() {
			child, _ := n.Child(j)
			if !hasFilter(child) {
				continue
			}
			cs, err := ctx.ResolveJoin(s, j)
			if err != nil {
				return err
			}
			if err := visit(child, cs); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(req.Root(), ctx.Root()); err != nil {
		return nil, nil, err
	}
	return ctx, preds, nil
}

func hasFilter(n *fetch.Node) bool {
	if n.Filter() != nil {
		return true
	}
	for _, j := range n.Joins() {
		child, _ := n.Child(j)
		if hasFilter(child) {
			return true
		}
	}
	return false
}

// pageSubquery selects one page of root keys. LIMIT on the flattened join
// would cut collections short, so the page is chosen over distinct roots.
func pageSubquery(reg *schema.Registry, req *fetch.Request, offset, limit uint64) (sq.SelectBuilder, error) {
	ctx, preds, err := filterOnly(reg, req, "s")
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	root := ctx.Root()
	keyCol := keyColumn(root)

	terms, err := rootSorts(ctx, req.Root(), root)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	terms = append(terms, orderTerm{col: keyCol, dir: fetch.Asc})

	b := ctx.from(sq.Select(keyCol).PlaceholderFormat(sq.Question))
	for _, pred := range preds {
		b = b.Where(pred)
	}
	return b.GroupBy(keyCol).
		OrderBy(orderBy(terms)...).
		Limit(limit).
		Offset(offset), nil
}

// countQuery counts distinct matching roots, ignoring pagination.
func countQuery(reg *schema.Registry, req *fetch.Request) (sq.SelectBuilder, error) {
	ctx, preds, err := filterOnly(reg, req, "t")
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	b := ctx.from(sq.Select("COUNT(DISTINCT " + keyColumn(ctx.Root()) + ")").PlaceholderFormat(sq.Question))
	for _, pred := range preds {
		b = b.Where(pred)
	}
	return b, nil
}
