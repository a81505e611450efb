// Package migrations embeds the sqlite ledger schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
