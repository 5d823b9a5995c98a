// Package query implements hybrid retrieval over the memory store: vector
// seeding, predicate filtering, graph expansion and ranking.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultSeedLimit is the number of vector hits requested when the
	// query sets no limit.
	DefaultSeedLimit = 10

	// HopDecay multiplies a parent's score for each traversal hop.
	HopDecay float32 = 0.5

	// FallbackScore is assigned to every memory when no embedding seeds
	// the query.
	FallbackScore float32 = 1.0
)

// Query is one retrieval request. Every part is optional.
type Query struct {
	Filter   Filter    `json:"filter,omitempty"`
	Search   *Search   `json:"search,omitempty"`
	Traverse *Traverse `json:"traverse,omitempty"`
	RankBy   *RankBy   `json:"rank_by,omitempty"`
	Limit    *int      `json:"limit,omitempty"`
}

type Search struct {
	Vector *VectorSearch `json:"vector,omitempty"`
}

type VectorSearch struct {
	// Text is accepted for clients that send it but is never embedded.
	Text *string `json:"text,omitempty"`

	Embedding []float32 `json:"embedding,omitempty"`

	// Threshold drops seeds scoring below it.
	Threshold *float32 `json:"threshold,omitempty"`
}

type Traverse struct {
	Direction Direction `json:"direction"`

	// EdgeTypes, when non-empty, restricts expansion to these relation types.
	EdgeTypes []string `json:"edge_types,omitempty"`

	// Depth is the number of hops; nil or 0 means one.
	Depth *int `json:"depth,omitempty"`
}

// RankBy is accepted but not interpreted; results are ranked by score.
type RankBy struct {
	Formula string `json:"formula"`
}

// Embedding returns the seeding embedding, or nil when the query has none.
func (q *Query) Embedding() []float32 {
	if q.Search == nil || q.Search.Vector == nil {
		return nil
	}
	return q.Search.Vector.Embedding
}

// Threshold returns the seed threshold and whether one is set.
func (q *Query) Threshold() (float32, bool) {
	if q.Search == nil || q.Search.Vector == nil || q.Search.Vector.Threshold == nil {
		return 0, false
	}
	return *q.Search.Vector.Threshold, true
}

// SeedLimit returns the number of vector hits to request.
func (q *Query) SeedLimit() int {
	if q.Limit == nil {
		return DefaultSeedLimit
	}
	return *q.Limit
}

// Hops returns the number of traversal hops, or 0 without a traversal.
func (t *Traverse) Hops() int {
	if t == nil {
		return 0
	}
	if t.Depth == nil || *t.Depth == 0 {
		return 1
	}
	return *t.Depth
}

// Validate reports the first structural problem as an *Error.
func (q *Query) Validate() error {
	if q.Limit != nil && *q.Limit < 0 {
		return invalid("limit", "must not be negative")
	}

	if q.Search != nil && q.Search.Vector != nil {
		if e := q.Search.Vector.Embedding; e != nil && len(e) == 0 {
			return invalid("search.vector.embedding", "must not be empty")
		}
	}

	if t := q.Traverse; t != nil {
		if !t.Direction.valid() {
			return invalid("traverse.direction", "unknown direction %d", int(t.Direction))
		}
		if t.Depth != nil && *t.Depth < 0 {
			return invalid("traverse.depth", "must not be negative")
		}
	}

	return nil
}

type queryAlias Query

type queryJSON struct {
	*queryAlias
	Filter json.RawMessage `json:"filter,omitempty"`
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var aux queryJSON
	aux.queryAlias = (*queryAlias)(q)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	q.Filter = nil
	if len(aux.Filter) > 0 && string(aux.Filter) != "null" {
		f, err := ParseFilter(aux.Filter)
		if err != nil {
			return err
		}
		q.Filter = f
	}
	return nil
}

// Parse decodes and validates a JSON query. Every failure, malformed JSON
// included, is an *Error.
func Parse(data []byte) (*Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		var qerr *Error
		if errors.As(err, &qerr) {
			return nil, qerr
		}
		return nil, &Error{Msg: fmt.Sprintf("malformed JSON: %v", err)}
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}
