package sqlite

import (
	"database/sql"
	"embed"

	"github.com/GuiaBolso/darwin"
	"github.com/diegoclair/sqlmigrator"
)

// SqlFiles holds the roster schema, one statement per file applied in name order
//
//go:embed sql/*.sql
var SqlFiles embed.FS

// Migrate brings the teams, members and announcements tables up to date
func Migrate(db *sql.DB) error {
	migrator := sqlmigrator.New(db, darwin.SqliteDialect{})

	return migrator.Migrate(SqlFiles, "sql")
}
