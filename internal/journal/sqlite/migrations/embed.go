// Package migrations contains embedded SQL migrations for the journal store.
package migrations

import "embed"

// FS contains embedded SQLite migrations for the pass journal.
//
//go:embed *.sql
var FS embed.FS
