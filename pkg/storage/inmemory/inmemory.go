// Package inmemory provides a map-backed storage.Driver for tests and
// ephemeral runs.
package inmemory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu gives single-writer, multi-reader semantics: writers take the
	// write lock for the whole transaction, views hold the read lock.
	mu sync.RWMutex

	// memories holds serialized records so callers never share state with
	// the store.
	memories map[uuid.UUID][]byte

	edgesOut map[uuid.UUID][]memory.Edge
	edgesIn  map[uuid.UUID][]memory.InboundEdge
}

// NewDriver creates a new in-memory storage driver.
func NewDriver() *Driver {
	return &Driver{
		memories: make(map[uuid.UUID][]byte),
		edgesOut: make(map[uuid.UUID][]memory.Edge),
		edgesIn:  make(map[uuid.UUID][]memory.InboundEdge),
	}
}

// SaveMemory upserts m.
func (d *Driver) SaveMemory(_ context.Context, m *memory.Memory) error {
	value, err := storage.EncodeMemory(m)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.memories[m.ID] = value
	return nil
}

// AddEdge appends the edge to both adjacency maps under one lock.
func (d *Driver) AddEdge(_ context.Context, source, target uuid.UUID, relationType string, weight float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := memory.Now()

	d.edgesOut[source] = append(d.edgesOut[source], memory.Edge{
		TargetID:     target,
		RelationType: relationType,
		Weight:       weight,
		CreatedAt:    now,
	})
	d.edgesIn[target] = append(d.edgesIn[target], memory.InboundEdge{
		SourceID:     source,
		RelationType: relationType,
		Weight:       weight,
		CreatedAt:    now,
	})

	return nil
}

// GetMemory returns the memory stored under id.
func (d *Driver) GetMemory(ctx context.Context, id uuid.UUID) (*memory.Memory, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return (*snapshot)(d).GetMemory(ctx, id)
}

// ListMemories returns every memory ordered by id.
func (d *Driver) ListMemories(ctx context.Context) ([]*memory.Memory, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return (*snapshot)(d).ListMemories(ctx)
}

// GetOutboundEdges returns a copy of the outbound adjacency list of id.
func (d *Driver) GetOutboundEdges(ctx context.Context, id uuid.UUID) ([]memory.Edge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return (*snapshot)(d).GetOutboundEdges(ctx, id)
}

// GetInboundEdges returns a copy of the inbound adjacency list of id.
func (d *Driver) GetInboundEdges(ctx context.Context, id uuid.UUID) ([]memory.InboundEdge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return (*snapshot)(d).GetInboundEdges(ctx, id)
}

// View holds the read lock while fn runs, so fn sees no concurrent writes.
func (d *Driver) View(_ context.Context, fn func(storage.Reader) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn((*snapshot)(d))
}

// Count returns the number of stored memories.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.memories)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// snapshot reads the maps without locking; callers hold d.mu.
type snapshot Driver

func (s *snapshot) GetMemory(_ context.Context, id uuid.UUID) (*memory.Memory, bool, error) {
	value, ok := s.memories[id]
	if !ok {
		return nil, false, nil
	}

	m, err := storage.DecodeMemory(value)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (s *snapshot) ListMemories(_ context.Context) ([]*memory.Memory, error) {
	ids := make([]uuid.UUID, 0, len(s.memories))
	for id := range s.memories {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	memories := make([]*memory.Memory, 0, len(ids))
	for _, id := range ids {
		m, err := storage.DecodeMemory(s.memories[id])
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, nil
}

func (s *snapshot) GetOutboundEdges(_ context.Context, id uuid.UUID) ([]memory.Edge, error) {
	return append([]memory.Edge{}, s.edgesOut[id]...), nil
}

func (s *snapshot) GetInboundEdges(_ context.Context, id uuid.UUID) ([]memory.InboundEdge, error) {
	return append([]memory.InboundEdge{}, s.edgesIn[id]...), nil
}
