// Package flat provides an exact, brute-force vector.Index held in memory.
package flat

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/vector"
)

type entry struct {
	id        uuid.UUID
	embedding []float32
}

// Index compares a query against every stored embedding. Searches run
// concurrently under a read lock; Add takes the write lock.
type Index struct {
	mu         sync.RWMutex
	entries    []entry
	dimensions int
	logger     *slog.Logger
}

// Config holds configuration for the flat index.
type Config struct {
	// Dimensions fixes the vector length. Zero adopts the length of the
	// first added vector.
	Dimensions int
}

// New creates an empty flat index.
func New(c Config, logger *slog.Logger) *Index {
	return &Index{
		dimensions: c.Dimensions,
		logger:     logger,
	}
}

// Add appends an entry. Duplicate ids add another entry.
func (x *Index) Add(_ context.Context, id uuid.UUID, embedding []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := vector.CheckDimensions("add "+id.String(), x.dimensions, embedding); err != nil {
		return err
	}
	if x.dimensions == 0 {
		x.dimensions = len(embedding)
	}

	x.entries = append(x.entries, entry{
		id:        id,
		embedding: slices.Clone(embedding),
	})
	return nil
}

// Delete drops every entry of id.
func (x *Index) Delete(_ context.Context, id uuid.UUID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = slices.DeleteFunc(x.entries, func(e entry) bool {
		return e.id == id
	})
	return nil
}

// Search scores every entry and returns the k best. Equal scores keep
// insertion order.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]vector.Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.entries) == 0 {
		return []vector.Result{}, nil
	}
	if err := vector.CheckDimensions("search", x.dimensions, query); err != nil {
		return nil, err
	}

	results := make([]vector.Result, 0, len(x.entries))
	for _, e := range x.entries {
		score, err := vector.CosineSimilarity(query, e.embedding)
		if err != nil {
			return nil, &vector.Error{Op: "search", Err: err}
		}
		results = append(results, vector.Result{ID: e.id, Score: score})
	}

	slices.SortStableFunc(results, func(a, b vector.Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(results) > k {
		results = results[:k]
	}

	x.logger.Debug("flat search", "entries", len(x.entries), "k", k, "results", len(results))
	return results, nil
}

// Len returns the number of entries, duplicates included.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close is a no-op for the flat index.
func (x *Index) Close() error {
	return nil
}
