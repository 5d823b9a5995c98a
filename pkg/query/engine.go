package query

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/storage"
	"github.com/papercomputeco/memgraph/pkg/vector"
)

// Result is one ranked memory.
type Result struct {
	Memory *memory.Memory `json:"memory"`
	Score  float32        `json:"score"`
}

// Config holds the collaborators of an Engine.
type Config struct {
	Storage storage.Driver
	Index   vector.Index
	Logger  *slog.Logger
}

// Engine executes queries. It holds no per-query state and is safe for
// concurrent use.
type Engine struct {
	storage storage.Driver
	index   vector.Index
	logger  *slog.Logger
}

// NewEngine creates an Engine reading from c.Storage and c.Index.
func NewEngine(c Config) *Engine {
	return &Engine{
		storage: c.Storage,
		index:   c.Index,
		logger:  c.Logger,
	}
}

// Execute runs q in four stages: seed, filter, traverse, then fetch and rank.
// Stages after seeding read one storage snapshot. Any storage or index
// failure aborts the query; no partial results are returned.
func (e *Engine) Execute(ctx context.Context, q *Query) ([]Result, error) {
	if q == nil {
		q = &Query{}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	c := newCandidates()

	embedding := q.Embedding()
	if embedding != nil {
		if err := e.seedFromIndex(ctx, q, c); err != nil {
			return nil, err
		}
	}

	if q.RankBy != nil {
		e.logger.Debug("rank_by is not interpreted, ranking by score", "formula", q.RankBy.Formula)
	}

	var results []Result
	err := e.storage.View(ctx, func(r storage.Reader) error {
		if embedding == nil {
			if err := seedFromScan(ctx, r, c); err != nil {
				return err
			}
		}
		e.logger.Debug("seeded candidates", "count", c.len(), "vector", embedding != nil)

		if q.Filter != nil {
			if err := c.filter(ctx, r, q.Filter); err != nil {
				return err
			}
			e.logger.Debug("filtered candidates", "count", c.len())
		}

		if q.Traverse != nil {
			if err := c.traverse(ctx, r, q.Traverse); err != nil {
				return err
			}
			e.logger.Debug("expanded candidates", "count", c.len(), "hops", q.Traverse.Hops())
		}

		var err error
		results, err = c.rank(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	if q.Limit != nil && len(results) > *q.Limit {
		results = results[:*q.Limit]
	}

	e.logger.Debug("query executed", "results", len(results))
	return results, nil
}

func (e *Engine) seedFromIndex(ctx context.Context, q *Query, c *candidates) error {
	if e.index == nil {
		return fmt.Errorf("seeding from vector index: no index configured")
	}

	hits, err := e.index.Search(ctx, q.Embedding(), q.SeedLimit())
	if err != nil {
		return fmt.Errorf("seeding from vector index: %w", err)
	}

	threshold, hasThreshold := q.Threshold()
	for _, hit := range hits {
		if hasThreshold && hit.Score < threshold {
			continue
		}
		// an index that keeps duplicate ids may return one id twice
		if prev, ok := c.scores[hit.ID]; !ok || hit.Score > prev {
			c.scores[hit.ID] = hit.Score
		}
	}
	return nil
}

func seedFromScan(ctx context.Context, r storage.Reader, c *candidates) error {
	all, err := r.ListMemories(ctx)
	if err != nil {
		return fmt.Errorf("seeding from full scan: %w", err)
	}
	for _, m := range all {
		c.scores[m.ID] = FallbackScore
		c.records[m.ID] = m
	}
	return nil
}

// candidates is the working set of one query: ids with their scores, plus
// the records fetched so far.
type candidates struct {
	scores  map[uuid.UUID]float32
	records map[uuid.UUID]*memory.Memory
}

func newCandidates() *candidates {
	return &candidates{
		scores:  map[uuid.UUID]float32{},
		records: map[uuid.UUID]*memory.Memory{},
	}
}

func (c *candidates) len() int {
	return len(c.scores)
}

// ids returns the candidate ids in ascending order.
func (c *candidates) ids() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.scores))
	for id := range c.scores {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)
	return ids
}

// record returns the memory for id, fetching it once.
func (c *candidates) record(ctx context.Context, r storage.Reader, id uuid.UUID) (*memory.Memory, bool, error) {
	if m, ok := c.records[id]; ok {
		return m, true, nil
	}
	m, ok, err := r.GetMemory(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	c.records[id] = m
	return m, true, nil
}

// filter removes every candidate that is missing or does not match f.
// Survivors keep their scores.
func (c *candidates) filter(ctx context.Context, r storage.Reader, f Filter) error {
	for _, id := range c.ids() {
		m, ok, err := c.record(ctx, r, id)
		if err != nil {
			return fmt.Errorf("filtering candidates: %w", err)
		}
		if !ok || !f.Match(m) {
			delete(c.scores, id)
		}
	}
	return nil
}

// traverse expands the candidate set breadth-first for t.Hops() hops. A node
// discovered in a hop scores HopDecay times the best score among the
// parents that reached it in that hop. Nodes already in the set keep their
// score and are not expanded again.
func (c *candidates) traverse(ctx context.Context, r storage.Reader, t *Traverse) error {
	var allowed map[string]bool
	if len(t.EdgeTypes) > 0 {
		allowed = make(map[string]bool, len(t.EdgeTypes))
		for _, rt := range t.EdgeTypes {
			allowed[rt] = true
		}
	}

	frontier := c.ids()
	for hop := 0; hop < t.Hops() && len(frontier) > 0; hop++ {
		found := map[uuid.UUID]float32{}
		propose := func(parent, neighbor uuid.UUID, relationType string) {
			if allowed != nil && !allowed[relationType] {
				return
			}
			if _, seen := c.scores[neighbor]; seen {
				return
			}
			score := c.scores[parent] * HopDecay
			if prev, ok := found[neighbor]; !ok || score > prev {
				found[neighbor] = score
			}
		}

		for _, id := range frontier {
			if t.Direction.Outbound() {
				edges, err := r.GetOutboundEdges(ctx, id)
				if err != nil {
					return fmt.Errorf("traversing outbound edges: %w", err)
				}
				for _, edge := range edges {
					propose(id, edge.TargetID, edge.RelationType)
				}
			}
			if t.Direction.Inbound() {
				edges, err := r.GetInboundEdges(ctx, id)
				if err != nil {
					return fmt.Errorf("traversing inbound edges: %w", err)
				}
				for _, edge := range edges {
					propose(id, edge.SourceID, edge.RelationType)
				}
			}
		}

		frontier = frontier[:0]
		for id, score := range found {
			c.scores[id] = score
			frontier = append(frontier, id)
		}
		slices.SortFunc(frontier, compareIDs)
	}
	return nil
}

// rank resolves every candidate to its record, silently dropping ids with
// no record, and orders by score descending then id ascending.
func (c *candidates) rank(ctx context.Context, r storage.Reader) ([]Result, error) {
	results := make([]Result, 0, len(c.scores))
	for _, id := range c.ids() {
		m, ok, err := c.record(ctx, r, id)
		if err != nil {
			return nil, fmt.Errorf("fetching candidates: %w", err)
		}
		if !ok {
			continue
		}
		results = append(results, Result{Memory: m, Score: c.scores[id]})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results, nil
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
