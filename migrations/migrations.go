// Package migrations embeds the SQL schema files applied by pkg/database.
package migrations

import "embed"

// Files holds every numbered *.sql migration in this directory.
//
//go:embed *.sql
var Files embed.FS
