// Package chromem provides a vector.Index on an embedded chromem-go
// collection, optionally persisted to disk.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	chromemgo "github.com/philippgille/chromem-go"

	"github.com/papercomputeco/memgraph/pkg/vector"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "memories"

var errNoEmbedder = errors.New("memgraph supplies embeddings; text embedding is not supported")

// Index implements vector.Index using chromem-go. Re-adding an id replaces
// its embedding, since chromem keys documents by id.
type Index struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection

	// dimensions is fixed by Config or adopted from the first Add.
	dimensions atomic.Int64

	logger *slog.Logger
}

// Config holds configuration for the chromem index.
type Config struct {
	// Path persists the collection to this directory. Empty keeps it in
	// memory only.
	Path string

	// Collection names the chromem collection. Defaults to DefaultCollection.
	Collection string

	// Dimensions fixes the vector length. Zero adopts the length of the
	// first added vector.
	Dimensions int
}

// New opens (or creates) the configured collection.
func New(c Config, logger *slog.Logger) (*Index, error) {
	var (
		db  *chromemgo.DB
		err error
	)
	if c.Path == "" {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(c.Path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database: %w", err)
		}
	}

	name := c.Collection
	if name == "" {
		name = DefaultCollection
	}

	collection, err := db.GetOrCreateCollection(name, nil, func(context.Context, string) ([]float32, error) {
		return nil, errNoEmbedder
	})
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}

	x := &Index{
		db:         db,
		collection: collection,
		logger:     logger,
	}
	x.dimensions.Store(int64(c.Dimensions))

	logger.Info("chromem vector index initialized",
		"path", c.Path,
		"collection", name,
		"documents", collection.Count(),
	)

	return x, nil
}

// Add upserts the embedding for id.
func (x *Index) Add(ctx context.Context, id uuid.UUID, embedding []float32) error {
	op := "add " + id.String()
	if err := x.checkDimensions(op, embedding, true); err != nil {
		return err
	}
	if vector.Magnitude(embedding) == 0 {
		return &vector.Error{Op: op, Err: vector.ErrZeroVector}
	}

	// chromem normalizes in place.
	doc := chromemgo.Document{
		ID:        id.String(),
		Embedding: append([]float32{}, embedding...),
	}
	if err := x.collection.AddDocument(ctx, doc); err != nil {
		return &vector.Error{Op: op, Err: err}
	}

	x.logger.Debug("added embedding to chromem", "id", id)
	return nil
}

// Delete removes the document of id, if any.
func (x *Index) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := x.collection.GetByID(ctx, id.String()); err != nil {
		// not in the collection
		return nil
	}
	if err := x.collection.Delete(ctx, nil, nil, id.String()); err != nil {
		return &vector.Error{Op: "delete " + id.String(), Err: err}
	}

	x.logger.Debug("deleted embedding from chromem", "id", id)
	return nil
}

// Search queries the collection. k is capped at the collection size.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Result, error) {
	if err := x.checkDimensions("search", query, false); err != nil {
		return nil, err
	}

	n := min(k, x.collection.Count())
	if n <= 0 {
		return []vector.Result{}, nil
	}
	if vector.Magnitude(query) == 0 {
		return nil, &vector.Error{Op: "search", Err: vector.ErrZeroVector}
	}

	hits, err := x.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, &vector.Error{Op: "search", Err: err}
	}

	results := make([]vector.Result, 0, len(hits))
	for _, hit := range hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			return nil, &vector.Error{Op: "search", Err: fmt.Errorf("decoding memory id %q: %w", hit.ID, err)}
		}
		results = append(results, vector.Result{ID: id, Score: hit.Similarity})
	}

	x.logger.Debug("queried chromem", "k", k, "results", len(results))
	return results, nil
}

// Close is a no-op; persistent collections are written on every Add.
func (x *Index) Close() error {
	return nil
}

// checkDimensions validates v, adopting its length on the first Add when no
// dimensionality was configured.
func (x *Index) checkDimensions(op string, v []float32, adopt bool) error {
	want := int(x.dimensions.Load())
	if err := vector.CheckDimensions(op, want, v); err != nil {
		return err
	}
	if want == 0 && adopt && !x.dimensions.CompareAndSwap(0, int64(len(v))) {
		return vector.CheckDimensions(op, int(x.dimensions.Load()), v)
	}
	return nil
}
