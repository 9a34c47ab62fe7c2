// Package history persists a record of describe and extract runs in SQLite.
//
// History is optional and write-only from the dispatcher's point of view: a
// failed write is logged and never changes the result returned to the caller.
// The `history` CLI command reads it back.
package history
