// Package querysql compiles fetch requests into one SQLite query.
//
// Compilation is pure: it reads the fetch tree and the schema registry and
// produces a Plan holding squirrel builders plus the hydration Shape. Nothing
// here touches a database.
//
// Two rules hold for every plan:
//
//   - one LEFT JOIN per distinct join path. The Context caches joins by
//     (parent alias, join) so filters, selections and nested nodes that walk
//     the same path share one alias.
//   - deterministic order. Every query ends its ORDER BY with the root key and
//     the key of each collection join, so equal inputs always yield rows in
//     the same order.
//
// Values are never interpolated into SQL; every literal is a "?" parameter.
package querysql
