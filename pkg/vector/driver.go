// Package vector defines the nearest-neighbor index that seeds queries.
package vector

import (
	"context"

	"github.com/google/uuid"
)

// Result is one search hit.
type Result struct {
	// ID is the memory id the embedding was added under.
	ID uuid.UUID `json:"id"`

	// Score is the cosine similarity to the query (higher = more similar).
	Score float32 `json:"score"`
}

// Index maintains (id, embedding) pairs and answers k-nearest-neighbor
// queries by cosine similarity. Implementations are safe for concurrent use.
type Index interface {
	// Add registers embedding under id.
	Add(ctx context.Context, id uuid.UUID, embedding []float32) error

	// Delete removes every entry registered under id. Deleting an unknown
	// id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns up to k results ordered by non-increasing score.
	// A query whose dimensionality differs from the indexed vectors fails
	// with ErrDimensionMismatch.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)

	// Close releases any resources held by the index.
	Close() error
}
