// Package migrations embeds the PostgreSQL schema migrations and applies them
// with golang-migrate.
package migrations

import "embed"

// FS contains the registry schema migrations.
//
//go:embed *.sql
var FS embed.FS
