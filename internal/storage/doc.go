// Package storage is the durable assignment ledger.
//
// It owns three tables (people, tasks, task_assignments) in a single SQLite
// file and exposes them only through scoped transactions: every call to
// Store.WithTx commits when the callback returns nil and rolls back otherwise,
// so multi-statement edits are all-or-nothing.
//
// The (task, date) pair is UNIQUE in the schema. Inserts that collide surface
// as ErrConflict unless the caller explicitly asked for insert-if-absent.
package storage
