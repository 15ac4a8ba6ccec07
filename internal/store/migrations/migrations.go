// Package migrations embeds the goose migrations that create the physical
// tables behind the partitioned store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
