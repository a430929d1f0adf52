package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const pingTimeout = 10 * time.Second

// Open connects to the catalog database and verifies it answers.
// driver is the configured name: sqlite3, mysql, or postgres.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	sqlName, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}
	conn, err := sqlx.Open(sqlName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	switch driver {
	case "sqlite3":
		// journal_mode is stored in the database file, so one connection is enough.
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	case "mysql":
		conn.SetConnMaxLifetime(3 * time.Minute)
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(10)
	case "postgres":
		conn.SetMaxOpenConns(20)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return conn, nil
}

// sqlDriverName maps a configured driver to its database/sql registration.
// modernc.org/sqlite registers as "sqlite".
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "sqlite3":
		return "sqlite", nil
	case "mysql", "postgres":
		return driver, nil
	default:
		return "", fmt.Errorf("unsupported DB driver %q: must be sqlite3, mysql, or postgres", driver)
	}
}
