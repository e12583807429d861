// Package harness decodes fetch requests written as YAML documents and runs
// YAML scenarios against a fresh SQLite database.
//
// A scenario names a directory of CUE entity definitions, SQL setup scripts,
// and a list of cases. Each case is a request document plus the expected
// outcome:
//
//	name: active-users
//	description: Active users with their published posts
//	schema: ../schema
//	setup:
//	  - |
//	    CREATE TABLE users (...);
//	cases:
//	  - name: by name
//	    request:
//	      entity: User
//	      select: [name]
//	      order: [{field: name}]
//	    expect:
//	      rows: [{name: alice}, {name: bob}]
//
// Rows are compared as canonical JSON, so key order in the expectation does
// not matter but every selected field and join must be present.
//
// RunWithGolden snapshots the compiled SQL and the hydrated rows of every
// case under testdata/golden.
package harness
