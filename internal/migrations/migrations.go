// Package migrations embeds the goose SQL migrations for each supported
// database dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SQLite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
