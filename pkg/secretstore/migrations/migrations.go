package migrations

import "embed"

// Migrations holds the SQL schema for the SQLite secret store.
//
//go:embed *.sql
var Migrations embed.FS
