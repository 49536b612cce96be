package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the gatekeeper schema; files register themselves in init.
var Migrations = migrate.NewMigrations()
