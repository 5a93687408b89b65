package migrations

import "embed"

// FS contains embedded SQLite migrations for revisions and workflow states.
//
//go:embed *.sql
var FS embed.FS
