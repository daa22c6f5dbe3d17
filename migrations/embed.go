package migrations

import "embed"

// Files holds the forward-only SQL migrations applied at startup.
//
//go:embed *.sql
var Files embed.FS
