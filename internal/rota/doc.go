// Package rota assigns recurring tasks to rotating people on a rolling
// window of days and edits that ledger without breaking the rotation.
//
// Every operation runs in one storage transaction: it commits as a whole or
// leaves the ledger untouched. Whose turn is next is never stored; top-up
// recovers it from the last populated day.
package rota
