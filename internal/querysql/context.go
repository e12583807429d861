package querysql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/fetchplan/internal/filter"
	"github.com/roach88/fetchplan/internal/schema"
)

// ConfigError reports a field or join that cannot be resolved against the
// registry or the scope it was used in. It is raised before any query runs.
type ConfigError struct {
	Identifier string
	Message    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unresolved %s: %s", e.Identifier, e.Message)
}

type joinKey struct {
	parent string
	join   *schema.JoinDef
}

// joinRef is one backend join created by a Context.
type joinRef struct {
	alias  string
	parent string
	def    *schema.JoinDef
}

// Context is the entity context of one compilation: it maps join paths to
// table aliases and creates each backend join at most once.
//
// A Context is not safe for concurrent use; every compilation makes its own.
type Context struct {
	reg    *schema.Registry
	prefix string
	root   *Scope

	joins map[joinKey]*joinRef
	order []*joinRef
}

// NewContext starts a context rooted at entity root. Aliases are prefix
// followed by a sequence number, the root being prefix+"0".
func NewContext(reg *schema.Registry, root *schema.Entity, prefix string) (*Context, error) {
	if root == nil {
		return nil, &ConfigError{Identifier: "<nil entity>", Message: "request has no root entity"}
	}
	if !reg.OwnsEntity(root) {
		return nil, &ConfigError{Identifier: root.Name, Message: "entity is not registered"}
	}
	c := &Context{
		reg:    reg,
		prefix: prefix,
		joins:  make(map[joinKey]*joinRef),
	}
	c.root = &Scope{ctx: c, alias: prefix + "0", entity: root}
	return c, nil
}

// Root returns the scope of the root entity.
func (c *Context) Root() *Scope { return c.root }

// ResolveField returns the alias-qualified column of f at scope s.
func (c *Context) ResolveField(s *Scope, f *schema.FieldDef) (string, error) {
	if f == nil {
		return "", &ConfigError{Identifier: f.String(), Message: "field handle is not bound"}
	}
	if !c.reg.OwnsField(f) {
		return "", &ConfigError{Identifier: f.String(), Message: "field has no mapping in this registry"}
	}
	if f.Entity != s.entity {
		return "", &ConfigError{
			Identifier: f.String(),
			Message:    fmt.Sprintf("field of %s used in %s scope", f.Entity, s.entity),
		}
	}
	return s.alias + "." + f.Column, nil
}

// ResolveJoin returns the scope reached from s via j, creating the backend
// join on first use.
func (c *Context) ResolveJoin(s *Scope, j *schema.JoinDef) (*Scope, error) {
	if j == nil {
		return nil, &ConfigError{Identifier: j.String(), Message: "join handle is not bound"}
	}
	if !c.reg.OwnsJoin(j) {
		return nil, &ConfigError{Identifier: j.String(), Message: "join has no mapping in this registry"}
	}
	if j.Entity != s.entity {
		return nil, &ConfigError{
			Identifier: j.String(),
			Message:    fmt.Sprintf("join of %s used in %s scope", j.Entity, s.entity),
		}
	}

	key := joinKey{parent: s.alias, join: j}
	ref, ok := c.joins[key]
	if !ok {
		ref = &joinRef{
			alias:  fmt.Sprintf("%s%d", c.prefix, len(c.order)+1),
			parent: s.alias,
			def:    j,
		}
		c.joins[key] = ref
		c.order = append(c.order, ref)
	}
	return &Scope{ctx: c, alias: ref.alias, entity: j.Target}, nil
}

// JoinCount returns the number of backend joins created so far.
func (c *Context) JoinCount() int { return len(c.order) }

// hasMany reports whether any join created so far, selected or needed by a
// filter, can repeat its parent's row.
func (c *Context) hasMany() bool {
	for _, ref := range c.order {
		if ref.def.Cardinality == schema.Many {
			return true
		}
	}
	return false
}

// from attaches the root table and every join, in creation order, to b.
func (c *Context) from(b sq.SelectBuilder) sq.SelectBuilder {
	b = b.From(fmt.Sprintf("%s AS %s", c.root.entity.Table, c.root.alias))
	for _, ref := range c.order {
		b = b.LeftJoin(fmt.Sprintf("%s AS %s ON %s.%s = %s.%s",
			ref.def.Target.Table, ref.alias,
			ref.parent, ref.def.LocalColumn,
			ref.alias, ref.def.TargetColumn))
	}
	return b
}

// Scope is a Context positioned at one join path.
type Scope struct {
	ctx    *Context
	alias  string
	entity *schema.Entity
}

var _ filter.Scope = (*Scope)(nil)

// Entity returns the entity reachable at this scope.
func (s *Scope) Entity() *schema.Entity { return s.entity }

// Alias returns the table alias of this scope.
func (s *Scope) Alias() string { return s.alias }

// Column implements filter.Scope.
func (s *Scope) Column(f *schema.FieldDef) (string, error) {
	return s.ctx.ResolveField(s, f)
}

// Join implements filter.Scope.
func (s *Scope) Join(j *schema.JoinDef) (filter.Scope, error) {
	child, err := s.ctx.ResolveJoin(s, j)
	if err != nil {
		return nil, err
	}
	return child, nil
}
