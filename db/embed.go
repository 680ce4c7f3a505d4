// Package db carries the plan journal schema migrations.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
