// Package migrations embeds the SQL schema for the planning SQLite store.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
