// Package migrations embeds the schema of the expense history database.
package migrations

import "embed"

// FS holds the versioned .sql files
//
//go:embed *.sql
var FS embed.FS
