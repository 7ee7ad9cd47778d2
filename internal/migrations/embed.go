// Package migrations embeds the goose SQL migrations that create the local
// store schema: the pending-operation queue, the metadata key-value table,
// and the synchronized domain tables.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
