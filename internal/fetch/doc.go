// Package fetch holds the fetch request tree: what a caller wants loaded.
//
// A Request has one root Node. Each Node names an entity and carries the
// selected fields, the child node of every requested join, an optional
// filter, and sort keys. Only the root carries pagination and the total-count
// flag.
//
// Building is idempotent. Selecting a field twice keeps one selection;
// joining the same relation twice returns the same child node, and each
// configurator call extends it. The compiler therefore never sees duplicate
// work, whatever order the caller built the tree in.
//
// The tree is mutated only while the caller builds it. The compiler reads it
// and never writes to it.
//
// NodeOf[E] and RequestOf[E] are typed views over the same structure; they
// accept only fields, joins and filters bound to E.
package fetch
