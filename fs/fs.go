package appfs

import "embed"

// FS holds the goose migrations: migrations/postgres and migrations/sqlite3.
//
//go:embed migrations
var FS embed.FS
