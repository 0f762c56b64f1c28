// Package migrations embeds the SQL schema for the seat and hold tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
