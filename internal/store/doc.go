// Package store opens the SQLite database fetch requests run against.
//
// The store owns no tables of its own. Callers apply DDL and seed data with
// ExecScript, and CheckRegistry verifies that every table and column a
// schema registry maps actually exists.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
