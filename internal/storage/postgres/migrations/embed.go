// Package migrations embeds the cart snapshot schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
