package harness

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fetchplan/internal/fetch"
	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/ir"
	"github.com/roach88/fetchplan/internal/querysql"
	"github.com/roach88/fetchplan/internal/schema"
)

// RequestDoc is a fetch request written as a document.
//
// Example:
//
//	entity: User
//	select: [name]
//	where: {field: active, op: eq, value: true}
//	order: [{field: name, dir: desc}]
//	join:
//	  posts:
//	    select: [title]
//	page: {offset: 0, limit: 10}
//	count: true
type RequestDoc struct {
	// Entity names the root entity.
	Entity string `yaml:"entity"`

	// Mode is "list" (default) or "unique".
	Mode string `yaml:"mode,omitempty"`

	Select []string           `yaml:"select,omitempty"`
	Where  *FilterDoc         `yaml:"where,omitempty"`
	Order  []SortDoc          `yaml:"order,omitempty"`
	Join   map[string]NodeDoc `yaml:"join,omitempty"`

	// Page bounds the root entities returned. Root only.
	Page *PageDoc `yaml:"page,omitempty"`

	// Count asks for the total number of matching root entities.
	Count bool `yaml:"count,omitempty"`
}

// NodeDoc is one node of the request tree.
type NodeDoc struct {
	Select []string           `yaml:"select,omitempty"`
	Where  *FilterDoc         `yaml:"where,omitempty"`
	Order  []SortDoc          `yaml:"order,omitempty"`
	Join   map[string]NodeDoc `yaml:"join,omitempty"`

	// Page is accepted only so a nested page can be reported clearly.
	Page *PageDoc `yaml:"page,omitempty"`
}

// PageDoc is an offset/limit pair.
type PageDoc struct {
	Offset uint64 `yaml:"offset"`
	Limit  uint64 `yaml:"limit"`
}

// SortDoc is one sort key. Dir is "asc" (default) or "desc".
type SortDoc struct {
	Field string `yaml:"field"`
	Dir   string `yaml:"dir,omitempty"`
}

// FilterDoc is one filter expression. Exactly one form must be used:
//
//	{field: name, op: eq, value: alice}   comparison
//	{field: id, in: [1, 2]}               membership
//	{field: email, null: true}            IS NULL (false for IS NOT NULL)
//	{all: [...]}                          conjunction
//	{any: [...]}                          disjunction
//	{not: {...}}                          negation
//	{through: posts, where: {...}}        filter on a joined entity
type FilterDoc struct {
	Field string    `yaml:"field,omitempty"`
	Op    string    `yaml:"op,omitempty"`
	Value yaml.Node `yaml:"value,omitempty"`
	In    []any     `yaml:"in,omitempty"`
	Null  *bool     `yaml:"null,omitempty"`

	All []FilterDoc `yaml:"all,omitempty"`
	Any []FilterDoc `yaml:"any,omitempty"`
	Not *FilterDoc  `yaml:"not,omitempty"`

	Through string     `yaml:"through,omitempty"`
	Where   *FilterDoc `yaml:"where,omitempty"`
}

// DocumentError reports a request document that does not fit the registry.
type DocumentError struct {
	Path    string
	Message string
}

func (e *DocumentError) Error() string {
	if e.Path == "" {
		return "request: " + e.Message
	}
	return fmt.Sprintf("request: %s: %s", e.Path, e.Message)
}

func docErr(path, format string, args ...any) *DocumentError {
	return &DocumentError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// DecodeRequest parses a request document, rejecting unknown keys.
func DecodeRequest(data []byte) (*RequestDoc, error) {
	var doc RequestDoc
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &doc, nil
}

// LoadRequest reads and parses a request document file.
func LoadRequest(path string) (*RequestDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return DecodeRequest(data)
}

// Build resolves the document against reg. Every name, operator and literal
// is checked here, so a request that builds only fails to compile if the
// registry changes underneath it.
func (d *RequestDoc) Build(reg *schema.Registry) (*fetch.Request, querysql.Mode, error) {
	mode, err := parseMode(d.Mode)
	if err != nil {
		return nil, 0, err
	}

	if d.Entity == "" {
		return nil, 0, docErr("entity", "entity is required")
	}
	ent, ok := reg.Entity(d.Entity)
	if !ok {
		return nil, 0, docErr("entity", "unknown entity %q", d.Entity)
	}
	req := fetch.NewRequest(ent)
	if err := buildNode(req.Root(), d.root(), ""); err != nil {
		return nil, 0, err
	}
	if d.Page != nil {
		if d.Page.Limit == 0 {
			return nil, 0, docErr("page.limit", "limit must be positive")
		}
		req.Page(d.Page.Offset, d.Page.Limit)
	}
	req.WithTotalCount(d.Count)
	return req, mode, nil
}

// root returns the tree part of the document.
func (d *RequestDoc) root() NodeDoc {
	return NodeDoc{Select: d.Select, Where: d.Where, Order: d.Order, Join: d.Join}
}

func parseMode(s string) (querysql.Mode, error) {
	switch s {
	case "", "list":
		return querysql.List, nil
	case "unique":
		return querysql.Unique, nil
	}
	return 0, docErr("mode", "mode must be \"list\" or \"unique\", got %q", s)
}

func buildNode(n *fetch.Node, doc NodeDoc, path string) error {
	ent := n.Entity()

	if doc.Page != nil {
		return docErr(childPath(path, "page"), "pagination is only allowed on the root")
	}

	for i, name := range doc.Select {
		f, ok := ent.Field(name)
		if !ok {
			return docErr(fmt.Sprintf("%s[%d]", childPath(path, "select"), i), "%s has no field %q", ent, name)
		}
		n.Select(f)
	}

	if doc.Where != nil {
		e, err := buildFilter(ent, *doc.Where, childPath(path, "where"))
		if err != nil {
			return err
		}
		if err := filter.Validate(e, ent); err != nil {
			return docErr(childPath(path, "where"), "%v", err)
		}
		n.Where(e)
	}

	for i, s := range doc.Order {
		p := fmt.Sprintf("%s[%d]", childPath(path, "order"), i)
		f, ok := ent.Field(s.Field)
		if !ok {
			return docErr(p, "%s has no field %q", ent, s.Field)
		}
		dir, err := parseDirection(s.Dir)
		if err != nil {
			return docErr(p, "%v", err)
		}
		n.OrderBy(f, dir)
	}

	// Declaration order of a YAML mapping is lost in a Go map; sort the
	// names so alias assignment is stable.
	for _, name := range sortedKeys(doc.Join) {
		j, ok := ent.Join(name)
		if !ok {
			return docErr(childPath(path, "join"), "%s has no join %q", ent, name)
		}
		child := n.Join(j)
		if err := buildNode(child, doc.Join[name], childPath(path, "join."+name)); err != nil {
			return err
		}
	}
	return nil
}

func parseDirection(s string) (fetch.Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return fetch.Asc, nil
	case "desc":
		return fetch.Desc, nil
	}
	return fetch.Asc, fmt.Errorf("direction must be \"asc\" or \"desc\", got %q", s)
}

func buildFilter(ent *schema.Entity, doc FilterDoc, path string) (filter.Expr, error) {
	forms := 0
	for _, set := range []bool{
		doc.Field != "",
		doc.All != nil,
		doc.Any != nil,
		doc.Not != nil,
		doc.Through != "",
	} {
		if set {
			forms++
		}
	}
	if forms != 1 {
		return nil, docErr(path, "filter must use exactly one of field, all, any, not, through")
	}

	switch {
	case doc.Field != "":
		return buildFieldFilter(ent, doc, path)

	case doc.All != nil:
		exprs, err := buildFilters(ent, doc.All, childPath(path, "all"))
		if err != nil {
			return nil, err
		}
		return filter.And{Exprs: exprs}, nil

	case doc.Any != nil:
		exprs, err := buildFilters(ent, doc.Any, childPath(path, "any"))
		if err != nil {
			return nil, err
		}
		return filter.Or{Exprs: exprs}, nil

	case doc.Not != nil:
		e, err := buildFilter(ent, *doc.Not, childPath(path, "not"))
		if err != nil {
			return nil, err
		}
		return filter.Not{Expr: e}, nil

	default:
		j, ok := ent.Join(doc.Through)
		if !ok {
			return nil, docErr(childPath(path, "through"), "%s has no join %q", ent, doc.Through)
		}
		if doc.Where == nil {
			return nil, docErr(path, "through requires a where filter")
		}
		e, err := buildFilter(j.Target, *doc.Where, childPath(path, "where"))
		if err != nil {
			return nil, err
		}
		return filter.Through{Join: j, Expr: e}, nil
	}
}

func buildFilters(ent *schema.Entity, docs []FilterDoc, path string) ([]filter.Expr, error) {
	exprs := make([]filter.Expr, 0, len(docs))
	for i, d := range docs {
		e, err := buildFilter(ent, d, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func buildFieldFilter(ent *schema.Entity, doc FilterDoc, path string) (filter.Expr, error) {
	f, ok := ent.Field(doc.Field)
	if !ok {
		return nil, docErr(childPath(path, "field"), "%s has no field %q", ent, doc.Field)
	}

	hasValue := !doc.Value.IsZero()
	switch {
	case doc.Null != nil:
		if doc.Op != "" || hasValue || doc.In != nil {
			return nil, docErr(path, "null cannot be combined with op, value or in")
		}
		if *doc.Null {
			return filter.IsNull{Field: f}, nil
		}
		return filter.Not{Expr: filter.IsNull{Field: f}}, nil

	case doc.In != nil:
		if doc.Op != "" || hasValue {
			return nil, docErr(path, "in cannot be combined with op or value")
		}
		values := make([]ir.IRValue, len(doc.In))
		for i, raw := range doc.In {
			v, err := ir.FromAny(raw)
			if err != nil {
				return nil, docErr(fmt.Sprintf("%s[%d]", childPath(path, "in"), i), "%v", err)
			}
			values[i] = v
		}
		in, err := filter.NewIn(f, values)
		if err != nil {
			return nil, docErr(childPath(path, "in"), "%v", err)
		}
		return in, nil

	default:
		if !hasValue {
			return nil, docErr(path, "comparison requires a value")
		}
		opName := doc.Op
		if opName == "" {
			opName = "eq"
		}
		op, err := filter.ParseOp(opName)
		if err != nil {
			return nil, docErr(childPath(path, "op"), "%v", err)
		}
		var raw any
		if err := doc.Value.Decode(&raw); err != nil {
			return nil, docErr(childPath(path, "value"), "%v", err)
		}
		v, err := ir.FromAny(raw)
		if err != nil {
			return nil, docErr(childPath(path, "value"), "%v", err)
		}
		if ir.IsNull(v) {
			return nil, docErr(childPath(path, "value"), "use null: true to match NULL")
		}
		c, err := filter.NewCompare(f, op, v)
		if err != nil {
			return nil, docErr(path, "%v", err)
		}
		return c, nil
	}
}

func childPath(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

func sortedKeys(m map[string]NodeDoc) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
