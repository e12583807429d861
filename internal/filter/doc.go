// Package filter provides the predicate algebra used by fetch requests.
//
// ARCHITECTURE:
//
// An Expr is a closed tree of predicate nodes. It knows nothing about
// aliases or SQL text; it names fields and joins by their schema definitions.
// Apply evaluates an Expr against a Scope (the entity context positioned at
// one join path) and yields a squirrel Sqlizer:
//
//	[Expr] --Apply(scope)--> [sq.Sqlizer] --> WHERE clause
//
// SEALED INTERFACE:
//
// Expr is sealed using the marker method pattern. Only types in this package
// implement it, so Apply's type switch is exhaustive. The one open door is
// Custom, which carries a Resolver callback: it receives the Scope and must
// return a predicate without side effects. Resolvers run during compilation
// only, never per row.
//
// EVALUATION RULES:
//
//   - Compare, In, IsNull resolve their field against the current scope
//   - And with no children is vacuously true; Or with no children is
//     vacuously false. Callers may append to a list unconditionally.
//   - Through resolves its join against the current scope (creating or
//     reusing the deduplicated join) and evaluates its child in the joined
//     entity's scope, so a filter can reach into a relation that the
//     request never selected.
//
// Typed construction lives in package where; this package is the untyped core
// that both the typed API and document decoders build on.
package filter
