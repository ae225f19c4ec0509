// Package migrations embeds the SQL migrations for every supported substrate.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per driver.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
