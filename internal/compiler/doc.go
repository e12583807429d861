// Package compiler turns entity definitions written in CUE into a
// schema.Registry.
//
// Definitions live under a top-level "entity" struct:
//
//	entity: User: {
//		table: "users"
//		key:   "id"
//		field: {
//			id:    int
//			name:  string
//			email: {type: string, column: "email_address"}
//		}
//		join: posts: {
//			target:      "Post"
//			local:       "id"
//			remote:      "author_id"
//			cardinality: "many"
//		}
//	}
//
// Field types are string, int or bool. Floats are rejected.
package compiler
