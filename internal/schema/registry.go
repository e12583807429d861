package schema

import (
	"fmt"

	"github.com/roach88/fetchplan/internal/ir"
)

// Kind is the logical type of a field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
)

// KindOf returns the Kind matching the Go scalar type T.
func KindOf[T ir.Scalar]() Kind {
	var zero T
	switch any(zero).(type) {
	case string:
		return KindString
	case int64:
		return KindInt
	default:
		return KindBool
	}
}

func (k Kind) valid() bool {
	switch k {
	case KindString, KindInt, KindBool:
		return true
	}
	return false
}

// Cardinality says whether a join yields one related entity or a set.
type Cardinality int

const (
	// One is a to-one relation; hydrated as a single nested row (or absent).
	One Cardinality = iota
	// Many is a to-many relation; hydrated as a list of nested rows.
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// EntitySpec declares one persistent record type and its mapping.
type EntitySpec struct {
	Name   string
	Table  string
	Key    string // name of the identity field; must be one of Fields
	Fields []FieldSpec
	Joins  []JoinSpec
}

// FieldSpec declares a scalar attribute. Column defaults to Name.
type FieldSpec struct {
	Name   string
	Column string
	Kind   Kind
}

// JoinSpec declares a relation from the enclosing entity to Target.
// The join condition is parent.LocalColumn = target.TargetColumn.
type JoinSpec struct {
	Name         string
	Target       string
	LocalColumn  string
	TargetColumn string
	Cardinality  Cardinality
}

// Entity is a registered entity definition.
type Entity struct {
	Name  string
	Table string

	reg        *Registry
	key        *FieldDef
	fields     map[string]*FieldDef
	fieldOrder []*FieldDef
	joins      map[string]*JoinDef
	joinOrder  []*JoinDef
}

// Key returns the identity field.
func (e *Entity) Key() *FieldDef { return e.key }

// Field looks up a field by name.
func (e *Entity) Field(name string) (*FieldDef, bool) {
	f, ok := e.fields[name]
	return f, ok
}

// Join looks up a join by name.
func (e *Entity) Join(name string) (*JoinDef, bool) {
	j, ok := e.joins[name]
	return j, ok
}

// Fields returns fields in declaration order.
func (e *Entity) Fields() []*FieldDef { return e.fieldOrder }

// Joins returns joins in declaration order.
func (e *Entity) Joins() []*JoinDef { return e.joinOrder }

func (e *Entity) String() string { return e.Name }

// FieldDef is a registered scalar attribute.
type FieldDef struct {
	Entity *Entity
	Name   string
	Column string
	Kind   Kind
}

// String returns the qualified name, e.g. "User.name".
func (f *FieldDef) String() string {
	if f == nil {
		return "<nil field>"
	}
	return f.Entity.Name + "." + f.Name
}

// JoinDef is a registered relation.
type JoinDef struct {
	Entity       *Entity
	Name         string
	Target       *Entity
	LocalColumn  string
	TargetColumn string
	Cardinality  Cardinality
}

// String returns the qualified name, e.g. "User.posts".
func (j *JoinDef) String() string {
	if j == nil {
		return "<nil join>"
	}
	return j.Entity.Name + "." + j.Name
}

// Registry holds every entity definition. It is immutable once Build returns.
type Registry struct {
	entities map[string]*Entity
	order    []*Entity
}

// Build validates specs and assembles a Registry.
// Every mapping problem (unknown join target, missing key, duplicate name,
// empty column) is reported here, at definition-build time, never at query time.
func Build(specs ...EntitySpec) (*Registry, error) {
	reg := &Registry{entities: make(map[string]*Entity, len(specs))}

	// Pass 1: entities and fields, so joins can reference any entity.
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &DefinitionError{Message: "entity name is required"}
		}
		if _, dup := reg.entities[spec.Name]; dup {
			return nil, &DefinitionError{Entity: spec.Name, Message: "duplicate entity"}
		}
		if spec.Table == "" {
			return nil, &DefinitionError{Entity: spec.Name, Message: "table is required"}
		}

		ent := &Entity{
			Name:   spec.Name,
			Table:  spec.Table,
			reg:    reg,
			fields: make(map[string]*FieldDef, len(spec.Fields)),
			joins:  make(map[string]*JoinDef, len(spec.Joins)),
		}
		for _, fs := range spec.Fields {
			if fs.Name == "" {
				return nil, &DefinitionError{Entity: spec.Name, Message: "field name is required"}
			}
			if _, dup := ent.fields[fs.Name]; dup {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: fs.Name, Message: "duplicate field"}
			}
			if !fs.Kind.valid() {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: fs.Name, Message: fmt.Sprintf("unknown kind %q", fs.Kind)}
			}
			column := fs.Column
			if column == "" {
				column = fs.Name
			}
			f := &FieldDef{Entity: ent, Name: fs.Name, Column: column, Kind: fs.Kind}
			ent.fields[fs.Name] = f
			ent.fieldOrder = append(ent.fieldOrder, f)
		}

		key, ok := ent.fields[spec.Key]
		if !ok {
			return nil, &DefinitionError{Entity: spec.Name, Identifier: spec.Key, Message: "key must name a declared field"}
		}
		ent.key = key

		reg.entities[spec.Name] = ent
		reg.order = append(reg.order, ent)
	}

	// Pass 2: joins.
	for _, spec := range specs {
		ent := reg.entities[spec.Name]
		for _, js := range spec.Joins {
			if js.Name == "" {
				return nil, &DefinitionError{Entity: spec.Name, Message: "join name is required"}
			}
			if _, dup := ent.joins[js.Name]; dup {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: js.Name, Message: "duplicate join"}
			}
			if _, clash := ent.fields[js.Name]; clash {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: js.Name, Message: "join name collides with a field"}
			}
			target, ok := reg.entities[js.Target]
			if !ok {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: js.Name, Message: fmt.Sprintf("unknown join target %q", js.Target)}
			}
			if js.LocalColumn == "" || js.TargetColumn == "" {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: js.Name, Message: "join requires local and target columns"}
			}
			if js.Cardinality != One && js.Cardinality != Many {
				return nil, &DefinitionError{Entity: spec.Name, Identifier: js.Name, Message: "invalid cardinality"}
			}
			j := &JoinDef{
				Entity:       ent,
				Name:         js.Name,
				Target:       target,
				LocalColumn:  js.LocalColumn,
				TargetColumn: js.TargetColumn,
				Cardinality:  js.Cardinality,
			}
			ent.joins[js.Name] = j
			ent.joinOrder = append(ent.joinOrder, j)
		}
	}

	return reg, nil
}

// Entity looks up an entity by name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Entities returns all entities in registration order.
func (r *Registry) Entities() []*Entity { return r.order }

// OwnsField reports whether f is a definition registered in r.
// A nil definition (an unbound typed handle) is never owned.
func (r *Registry) OwnsField(f *FieldDef) bool {
	if f == nil || f.Entity == nil || f.Entity.reg != r {
		return false
	}
	return f.Entity.fields[f.Name] == f
}

// OwnsJoin reports whether j is a definition registered in r.
func (r *Registry) OwnsJoin(j *JoinDef) bool {
	if j == nil || j.Entity == nil || j.Entity.reg != r {
		return false
	}
	return j.Entity.joins[j.Name] == j
}

// OwnsEntity reports whether e is registered in r.
func (r *Registry) OwnsEntity(e *Entity) bool {
	return e != nil && e.reg == r
}
