// Package migrations embeds the SQLite record store schema.
package migrations

import "embed"

// FS holds the ordered *.up.sql files applied at open.
//
//go:embed *.sql
var FS embed.FS
