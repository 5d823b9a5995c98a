// Package sqlitevec provides a SQLite-backed vector index using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/memgraph/pkg/vector"
)

// Index implements vector.Index with a vec0 virtual table using the cosine
// distance metric. KNN queries are exact.
type Index struct {
	db         *sql.DB
	dimensions int
	logger     *slog.Logger
}

// Config holds configuration for the sqlite-vec index.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions int
}

// New creates a sqlite-vec index, creating its tables if needed.
func New(c Config, logger *slog.Logger) (*Index, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions must be configured")
	}

	dsn := c.DBPath
	if c.DBPath != ":memory:" {
		dsn = c.DBPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if c.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 tables key rows by integer rowid; vec_entries maps each rowid
	// back to its memory id. memory_id is not unique: re-adding an id
	// appends another entry.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			memory_id BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating entries table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector index initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Index{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// Add appends an entry for id. Zero-magnitude embeddings are rejected with
// vector.ErrZeroVector since the cosine distance is undefined for them.
func (x *Index) Add(ctx context.Context, id uuid.UUID, embedding []float32) error {
	op := "add " + id.String()
	if err := vector.CheckDimensions(op, x.dimensions, embedding); err != nil {
		return err
	}
	if vector.Magnitude(embedding) == 0 {
		return &vector.Error{Op: op, Err: vector.ErrZeroVector}
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("serializing embedding: %w", err)}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO vec_entries(memory_id) VALUES (?)`, id[:])
	if err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("inserting entry: %w", err)}
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("getting rowid: %w", err)}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
		rowID, blob,
	); err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("inserting embedding: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("committing transaction: %w", err)}
	}

	x.logger.Debug("added embedding to sqlite-vec", "id", id, "rowid", rowID)
	return nil
}

// Delete removes every entry of id from both tables in one transaction.
func (x *Index) Delete(ctx context.Context, id uuid.UUID) error {
	op := "delete " + id.String()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT rowid FROM vec_entries WHERE memory_id = ?`, id[:])
	if err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("listing entries: %w", err)}
	}
	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return &vector.Error{Op: op, Err: fmt.Errorf("scanning rowid: %w", err)}
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("iterating entries: %w", err)}
	}

	// vec0 deletes by rowid only
	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_embeddings WHERE rowid = ?`, rowID); err != nil {
			return &vector.Error{Op: op, Err: fmt.Errorf("deleting embedding: %w", err)}
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_entries WHERE memory_id = ?`, id[:]); err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("deleting entries: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return &vector.Error{Op: op, Err: fmt.Errorf("committing transaction: %w", err)}
	}

	x.logger.Debug("deleted embeddings from sqlite-vec", "id", id, "entries", len(rowIDs))
	return nil
}

// Search runs a KNN query and converts cosine distance to similarity. A
// zero-magnitude query scores 0 against every entry, so the first k entries
// are returned in insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Result, error) {
	if k <= 0 {
		return []vector.Result{}, nil
	}
	if err := vector.CheckDimensions("search", x.dimensions, query); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if vector.Magnitude(query) == 0 {
		rows, err = x.db.QueryContext(ctx,
			`SELECT memory_id, 1.0 FROM vec_entries ORDER BY rowid LIMIT ?`, k)
	} else {
		blob, serr := sqlite_vec.SerializeFloat32(query)
		if serr != nil {
			return nil, &vector.Error{Op: "search", Err: fmt.Errorf("serializing query: %w", serr)}
		}
		rows, err = x.db.QueryContext(ctx, `
			SELECT
				e.memory_id,
				ve.distance
			FROM vec_embeddings ve
			INNER JOIN vec_entries e ON e.rowid = ve.rowid
			WHERE ve.embedding MATCH ?
				AND ve.k = ?
			ORDER BY ve.distance
		`, blob, k)
	}
	if err != nil {
		return nil, &vector.Error{Op: "search", Err: fmt.Errorf("querying vectors: %w", err)}
	}
	defer rows.Close()

	results := []vector.Result{}
	for rows.Next() {
		var (
			raw      []byte
			distance float64
		)
		if err := rows.Scan(&raw, &distance); err != nil {
			return nil, &vector.Error{Op: "search", Err: fmt.Errorf("scanning result: %w", err)}
		}

		id, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, &vector.Error{Op: "search", Err: fmt.Errorf("decoding memory id: %w", err)}
		}

		results = append(results, vector.Result{
			ID:    id,
			Score: float32(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &vector.Error{Op: "search", Err: fmt.Errorf("iterating results: %w", err)}
	}

	x.logger.Debug("queried sqlite-vec", "k", k, "results", len(results))
	return results, nil
}

// Close releases resources held by the index.
func (x *Index) Close() error {
	return x.db.Close()
}
