// Package sqlkv implements storage.Driver as three key-value tables on top of
// database/sql. It is database-agnostic and is embedded by the sqlite and
// postgres drivers, which supply the connection and a Dialect.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/storage"
)

const (
	tableMemories = "memories"
	tableEdgesOut = "edges_out"
	tableEdgesIn  = "edges_in"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	// Name identifies the backend in logs.
	Name string

	// BlobType is the column type used for keys and values.
	BlobType string

	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// LockSuffix is appended to adjacency reads inside write transactions.
	LockSuffix string

	// ReadOptions are the options for snapshot (View) transactions.
	ReadOptions *sql.TxOptions
}

// SQLite is the dialect for github.com/mattn/go-sqlite3.
var SQLite = Dialect{
	Name:        "sqlite",
	BlobType:    "BLOB",
	Placeholder: func(int) string { return "?" },
}

// Postgres is the dialect for the pgx database/sql driver.
var Postgres = Dialect{
	Name:        "postgres",
	BlobType:    "BYTEA",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	LockSuffix:  " FOR UPDATE",
	ReadOptions: &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type statements struct {
	getValue    map[string]string
	lockValue   map[string]string
	upsertValue map[string]string
	listMemory  string
}

// Driver provides storage operations over a database/sql connection.
type Driver struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	stmts   statements

	// writeMu admits one write transaction at a time so that the
	// read-modify-write of adjacency lists never races another writer.
	writeMu sync.Mutex
}

// New creates the three tables if needed and returns a Driver that owns db.
func New(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (*Driver, error) {
	d := &Driver{
		db:      db,
		dialect: dialect,
		logger:  logger,
		stmts:   buildStatements(dialect),
	}

	for _, table := range []string{tableMemories, tableEdgesOut, tableEdgesIn} {
		ddl := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id %s PRIMARY KEY, data %s NOT NULL)`,
			table, dialect.BlobType, dialect.BlobType,
		)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating %s table: %w", table, err)
		}
	}

	logger.Debug("key-value tables ready", "dialect", dialect.Name)

	return d, nil
}

func buildStatements(d Dialect) statements {
	s := statements{
		getValue:    map[string]string{},
		lockValue:   map[string]string{},
		upsertValue: map[string]string{},
		listMemory:  fmt.Sprintf(`SELECT data FROM %s ORDER BY id`, tableMemories),
	}

	for _, table := range []string{tableMemories, tableEdgesOut, tableEdgesIn} {
		get := fmt.Sprintf(`SELECT data FROM %s WHERE id = %s`, table, d.Placeholder(1))
		s.getValue[table] = get
		s.lockValue[table] = get + d.LockSuffix
		s.upsertValue[table] = fmt.Sprintf(
			`INSERT INTO %s (id, data) VALUES (%s, %s) ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
			table, d.Placeholder(1), d.Placeholder(2),
		)
	}

	return s
}

// SaveMemory upserts m in one write transaction.
func (d *Driver) SaveMemory(ctx context.Context, m *memory.Memory) error {
	value, err := storage.EncodeMemory(m)
	if err != nil {
		return err
	}

	err = d.update(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, d.stmts.upsertValue[tableMemories], storage.Key(m.ID), value)
		return err
	})
	if err != nil {
		return storage.Wrap("save memory "+m.ID.String(), err)
	}

	d.logger.Debug("saved memory", "id", m.ID, "kind", m.Kind())
	return nil
}

// AddEdge appends the edge to both adjacency tables in one write transaction.
func (d *Driver) AddEdge(ctx context.Context, source, target uuid.UUID, relationType string, weight float32) error {
	err := d.update(ctx, func(tx *sql.Tx) error {
		now := memory.Now()

		outbound, err := loadList[memory.Edge](ctx, tx, d.stmts.lockValue[tableEdgesOut], source)
		if err != nil {
			return err
		}
		outbound = append(outbound, memory.Edge{
			TargetID:     target,
			RelationType: relationType,
			Weight:       weight,
			CreatedAt:    now,
		})
		if err := storeList(ctx, tx, d.stmts.upsertValue[tableEdgesOut], source, outbound); err != nil {
			return err
		}

		inbound, err := loadList[memory.InboundEdge](ctx, tx, d.stmts.lockValue[tableEdgesIn], target)
		if err != nil {
			return err
		}
		inbound = append(inbound, memory.InboundEdge{
			SourceID:     source,
			RelationType: relationType,
			Weight:       weight,
			CreatedAt:    now,
		})
		return storeList(ctx, tx, d.stmts.upsertValue[tableEdgesIn], target, inbound)
	})
	if err != nil {
		return storage.Wrap("add edge "+source.String()+" -> "+target.String(), err)
	}

	d.logger.Debug("added edge",
		"source", source,
		"target", target,
		"relation_type", relationType,
		"weight", weight,
	)
	return nil
}

// GetMemory returns the memory stored under id.
func (d *Driver) GetMemory(ctx context.Context, id uuid.UUID) (*memory.Memory, bool, error) {
	return d.reader(d.db).GetMemory(ctx, id)
}

// ListMemories returns every memory ordered by id.
func (d *Driver) ListMemories(ctx context.Context) ([]*memory.Memory, error) {
	return d.reader(d.db).ListMemories(ctx)
}

// GetOutboundEdges returns the outbound adjacency list of id.
func (d *Driver) GetOutboundEdges(ctx context.Context, id uuid.UUID) ([]memory.Edge, error) {
	return d.reader(d.db).GetOutboundEdges(ctx, id)
}

// GetInboundEdges returns the inbound adjacency list of id.
func (d *Driver) GetInboundEdges(ctx context.Context, id uuid.UUID) ([]memory.InboundEdge, error) {
	return d.reader(d.db).GetInboundEdges(ctx, id)
}

// View runs fn inside one read transaction.
func (d *Driver) View(ctx context.Context, fn func(storage.Reader) error) error {
	tx, err := d.db.BeginTx(ctx, d.dialect.ReadOptions)
	if err != nil {
		return storage.Wrap("begin read transaction", err)
	}
	defer tx.Rollback()

	if err := fn(d.reader(tx)); err != nil {
		return err
	}

	return storage.Wrap("commit read transaction", tx.Commit())
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// update runs fn in a write transaction, committing only if fn succeeds.
func (d *Driver) update(ctx context.Context, fn func(*sql.Tx) error) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (d *Driver) reader(q querier) *reader {
	return &reader{q: q, stmts: &d.stmts}
}

// reader implements storage.Reader against a querier.
type reader struct {
	q     querier
	stmts *statements
}

func (r *reader) GetMemory(ctx context.Context, id uuid.UUID) (*memory.Memory, bool, error) {
	var value []byte
	err := r.q.QueryRowContext(ctx, r.stmts.getValue[tableMemories], storage.Key(id)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get memory "+id.String(), err)
	}

	m, err := storage.DecodeMemory(value)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *reader) ListMemories(ctx context.Context) ([]*memory.Memory, error) {
	rows, err := r.q.QueryContext(ctx, r.stmts.listMemory)
	if err != nil {
		return nil, storage.Wrap("list memories", err)
	}
	defer rows.Close()

	memories := []*memory.Memory{}
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, storage.Wrap("list memories", err)
		}

		m, err := storage.DecodeMemory(value)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("list memories", err)
	}
	return memories, nil
}

func (r *reader) GetOutboundEdges(ctx context.Context, id uuid.UUID) ([]memory.Edge, error) {
	edges, err := loadList[memory.Edge](ctx, r.q, r.stmts.getValue[tableEdgesOut], id)
	return edges, storage.Wrap("get outbound edges "+id.String(), err)
}

func (r *reader) GetInboundEdges(ctx context.Context, id uuid.UUID) ([]memory.InboundEdge, error) {
	edges, err := loadList[memory.InboundEdge](ctx, r.q, r.stmts.getValue[tableEdgesIn], id)
	return edges, storage.Wrap("get inbound edges "+id.String(), err)
}

// loadList reads an adjacency list, returning an empty list for unknown ids.
func loadList[E memory.Edge | memory.InboundEdge](ctx context.Context, q querier, query string, id uuid.UUID) ([]E, error) {
	var value []byte
	err := q.QueryRowContext(ctx, query, storage.Key(id)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []E{}, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.DecodeEdges[E](value)
}

func storeList[E memory.Edge | memory.InboundEdge](ctx context.Context, tx *sql.Tx, query string, id uuid.UUID, edges []E) error {
	value, err := storage.EncodeEdges(edges)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, storage.Key(id), value)
	return err
}
