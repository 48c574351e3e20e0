package sql

import "embed"

// Migrations holds the idempotent schema migrations, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
