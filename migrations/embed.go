// Package migrations embeds the SQL schema migrations so both binaries can
// apply them without a filesystem dependency.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
