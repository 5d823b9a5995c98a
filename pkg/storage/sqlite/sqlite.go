// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/memgraph/pkg/storage/sqlkv"
)

// InMemory is the path that opens a private in-memory database.
const InMemory = ":memory:"

// Driver implements storage.Driver using SQLite via the sqlkv driver.
type Driver struct {
	*sqlkv.Driver
}

// NewDriver creates a new SQLite-backed storage driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string, logger *slog.Logger) (*Driver, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := dbPath
	if dbPath != InMemory {
		// WAL lets readers keep their snapshot while a writer commits.
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == InMemory {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}

	kv, err := sqlkv.New(context.Background(), db, sqlkv.SQLite, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("sqlite storage driver initialized", "path", dbPath)

	return &Driver{Driver: kv}, nil
}
