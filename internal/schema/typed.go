package schema

import (
	"fmt"

	"github.com/roach88/fetchplan/internal/ir"
)

// EntityType binds the phantom Go type E to a registered entity.
type EntityType[E any] struct {
	def *Entity
}

// Def returns the bound definition.
func (et EntityType[E]) Def() *Entity { return et.def }

// Bind binds E to the entity registered under name.
func Bind[E any](reg *Registry, name string) (EntityType[E], error) {
	ent, ok := reg.Entity(name)
	if !ok {
		return EntityType[E]{}, &DefinitionError{Entity: name, Message: "entity not registered"}
	}
	return EntityType[E]{def: ent}, nil
}

// MustBind is Bind for package-level initialization. It panics on error.
func MustBind[E any](reg *Registry, name string) EntityType[E] {
	et, err := Bind[E](reg, name)
	if err != nil {
		panic(err)
	}
	return et
}

// AnyField is any typed field of entity E regardless of its value type.
// It is sealed: only Field implements it.
type AnyField[E any] interface {
	Def() *FieldDef
	boundTo(E)
}

// Field names a scalar attribute of E with value type T.
type Field[E any, T ir.Scalar] struct {
	def *FieldDef
}

// Def returns the bound definition (nil for the zero value).
func (f Field[E, T]) Def() *FieldDef { return f.def }

func (Field[E, T]) boundTo(E) {}

func (f Field[E, T]) String() string { return f.def.String() }

// FieldOf binds a field of et. The declared Kind must match T.
func FieldOf[E any, T ir.Scalar](et EntityType[E], name string) (Field[E, T], error) {
	if et.def == nil {
		return Field[E, T]{}, &DefinitionError{Identifier: name, Message: "entity type is not bound"}
	}
	f, ok := et.def.Field(name)
	if !ok {
		return Field[E, T]{}, &DefinitionError{Entity: et.def.Name, Identifier: name, Message: "field not registered"}
	}
	if want := KindOf[T](); f.Kind != want {
		return Field[E, T]{}, &DefinitionError{
			Entity:     et.def.Name,
			Identifier: name,
			Message:    fmt.Sprintf("field kind is %s, bound as %s", f.Kind, want),
		}
	}
	return Field[E, T]{def: f}, nil
}

// MustField is FieldOf for package-level initialization. It panics on error.
func MustField[E any, T ir.Scalar](et EntityType[E], name string) Field[E, T] {
	f, err := FieldOf[E, T](et, name)
	if err != nil {
		panic(err)
	}
	return f
}

// Key returns the identity field of et bound as T.
func Key[E any, T ir.Scalar](et EntityType[E]) (Field[E, T], error) {
	if et.def == nil {
		return Field[E, T]{}, &DefinitionError{Message: "entity type is not bound"}
	}
	return FieldOf[E, T](et, et.def.Key().Name)
}

// Join names a relation from E to F.
type Join[E, F any] struct {
	def *JoinDef
}

// Def returns the bound definition (nil for the zero value).
func (j Join[E, F]) Def() *JoinDef { return j.def }

func (j Join[E, F]) String() string { return j.def.String() }

// JoinOf binds the join called name on from; its target must be to.
func JoinOf[E, F any](from EntityType[E], name string, to EntityType[F]) (Join[E, F], error) {
	if from.def == nil || to.def == nil {
		return Join[E, F]{}, &DefinitionError{Identifier: name, Message: "entity type is not bound"}
	}
	j, ok := from.def.Join(name)
	if !ok {
		return Join[E, F]{}, &DefinitionError{Entity: from.def.Name, Identifier: name, Message: "join not registered"}
	}
	if j.Target != to.def {
		return Join[E, F]{}, &DefinitionError{
			Entity:     from.def.Name,
			Identifier: name,
			Message:    fmt.Sprintf("join targets %s, bound as %s", j.Target.Name, to.def.Name),
		}
	}
	return Join[E, F]{def: j}, nil
}

// MustJoin is JoinOf for package-level initialization. It panics on error.
func MustJoin[E, F any](from EntityType[E], name string, to EntityType[F]) Join[E, F] {
	j, err := JoinOf[E, F](from, name, to)
	if err != nil {
		panic(err)
	}
	return j
}
