// Package sqlitedb opens SQLite databases through the pure-Go modernc driver
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite
const DriverName = "sqlite"

// Sentinel errors for sqlitedb package operations
var (
	ErrInvalidDSN         = errors.New("invalid sqlite data source name")
	ErrDatabaseOpen       = errors.New("failed to open sqlite database")
	ErrDatabaseConnection = errors.New("failed to connect to sqlite database")
)

// IsSQLiteURL reports whether the url addresses a SQLite database rather than a server
func IsSQLiteURL(url string) bool {
	return strings.HasPrefix(url, "sqlite:") ||
		strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db") ||
		strings.HasSuffix(url, ".sqlite") ||
		url == ":memory:"
}

// DSN converts sqlite:// and sqlite: urls into a driver data source name
func DSN(url string) string {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "sqlite:"):
		return strings.TrimPrefix(url, "sqlite:")
	default:
		return url
	}
}

// NewConnection opens the database with a single connection.
// The pipeline is a single writer and SQLite serializes writers anyway.
func NewConnection(ctx context.Context, url string) (*sql.DB, error) {
	dsn := DSN(url)
	if dsn == "" {
		return nil, ErrInvalidDSN
	}

	db, err := sql.Open(DriverName, withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOpen, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrDatabaseConnection, err)
	}

	return db, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
