// Package engine executes fetch requests.
//
// The Executor compiles a fetch.Request with querysql, runs the resulting
// query on a caller-supplied session, and hydrates the rows. One request is
// one compilation and one round trip (two statements inside a single
// transaction when a total count is requested).
//
// The executor holds no per-request state and no database handle: the
// session is passed to every call, so independent requests can run
// concurrently on independent sessions.
//
// Errors are classified, never retried:
//
//   - CONFIGURATION: an identifier could not be resolved; raised before any
//     backend call
//   - CARDINALITY: a unique fetch matched more than one root entity
//
// Backend failures are returned wrapped with %w and otherwise untouched.
package engine
