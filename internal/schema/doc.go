// Package schema is the field and join identifier registry.
//
// A Registry is built once at startup from EntitySpec values (written by hand
// or compiled from CUE by package compiler) and is immutable afterwards, so it
// is safe for unsynchronized concurrent reads.
//
// Two layers of identifiers exist:
//
//   - Untyped definitions (*Entity, *FieldDef, *JoinDef) carry the persistence
//     mapping: table, column, and join columns. Definitions are compared by
//     pointer identity.
//   - Typed handles (EntityType[E], Field[E,T], Join[E,F]) bind a definition
//     to a phantom Go type E naming the entity. Filters and fetch requests
//     built from typed handles cannot reference a field on the wrong entity
//     or compare it against a literal of the wrong type; the Go compiler
//     rejects it.
//
// Example:
//
//	type User struct{}
//	type Post struct{}
//
//	reg, err := schema.Build(userSpec, postSpec)
//	users := schema.MustBind[User](reg, "User")
//	posts := schema.MustBind[Post](reg, "Post")
//	userName := schema.MustField[User, string](users, "name")
//	userPosts := schema.MustJoin[User, Post](users, "posts", posts)
package schema
