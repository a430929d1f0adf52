// Package migrations contains the goose migrations for Pinjam. SQL files hold
// the portable schema; Go files hold migrations whose SQL differs by dialect.
package migrations

import "github.com/jmoiron/sqlx"

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect for Go migrations.
// Must be called before goose.Up. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}

// rebind converts ? placeholders to the configured dialect's bind style.
func rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(dialect), query)
}
