// Package hydrate turns the flat rows of one compiled query back into the
// nested shape the caller asked for.
//
// The compiler records, for every fetch node, which result column carries the
// node's identity key and which columns carry its selected fields. That
// bookkeeping is a Shape. Hydrate walks the table once and groups rows by
// entity identity at every level:
//
//   - rows sharing a root key become one root Row
//   - a singular join yields the child Row built from the first row seen
//   - a collection join yields one child Row per distinct target key, in
//     first-seen order
//
// A NULL key at a join path means the related entity is absent. Rows that
// differ only in a deeper collection never produce duplicate entries at a
// shallower level.
package hydrate
