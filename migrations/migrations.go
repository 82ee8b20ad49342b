// Package migrations embeds the schema of the ENO store in sql-migrate format.
// Every file is valid for both PostgreSQL and SQLite.
package migrations

import (
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed *.sql
var files embed.FS

// Source returns the embedded migrations, or the migrations in dir when it is set
func Source(dir string) migrate.MigrationSource {
	if dir == "" {
		return &migrate.EmbedFileSystemMigrationSource{FileSystem: files, Root: "."}
	}
	return &migrate.FileMigrationSource{Dir: dir}
}
