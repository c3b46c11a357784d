// Package db embeds the goose migrations of the billing schema.
package db

import "embed"

// Migrations holds the SQL files under migrations/. Pass it to pg.Migrate
// with MigrationsDir set to "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
