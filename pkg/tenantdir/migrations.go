package tenantdir

import "embed"

// Migrations holds the goose migrations for the tenancy schema, under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory within Migrations that goose reads.
const MigrationsDir = "migrations"
