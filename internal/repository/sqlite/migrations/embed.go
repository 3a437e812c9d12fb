package migrations

import "embed"

// FS holds the SQL migrations applied when a store is opened.
//
//go:embed *.sql
var FS embed.FS
