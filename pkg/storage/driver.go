// Package storage defines the transactional persistence contract for
// memories and their bidirectional adjacency.
//
// A Driver exposes three logical tables keyed by the 128-bit memory id:
//
//	memories   id        -> serialized Memory
//	edges_out  source id -> ordered []memory.Edge
//	edges_in   target id -> ordered []memory.InboundEdge
//
// Drivers allow many concurrent readers against a stable snapshot and at most
// one committing writer at a time.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
)

// Reader is the read side of a Driver. Every call on a Driver opens its own
// read transaction; the Reader handed to a View callback reads from a single
// snapshot instead.
type Reader interface {
	// GetMemory returns the memory stored under id. A missing record is
	// reported with ok == false and a nil error.
	GetMemory(ctx context.Context, id uuid.UUID) (m *memory.Memory, ok bool, err error)

	// ListMemories returns every stored memory in table iteration order.
	ListMemories(ctx context.Context) ([]*memory.Memory, error)

	// GetOutboundEdges returns the edges whose source is id, in insertion
	// order. Unknown ids yield an empty list.
	GetOutboundEdges(ctx context.Context, id uuid.UUID) ([]memory.Edge, error)

	// GetInboundEdges returns the edges whose target is id, in insertion
	// order. Unknown ids yield an empty list.
	GetInboundEdges(ctx context.Context, id uuid.UUID) ([]memory.InboundEdge, error)
}

// Driver persists memories and edges.
type Driver interface {
	Reader

	// SaveMemory upserts m under m.ID in one write transaction. Saving an
	// existing id overwrites the whole record.
	SaveMemory(ctx context.Context, m *memory.Memory) error

	// AddEdge appends one Edge to source's outbound list and one InboundEdge
	// to target's inbound list, both stamped with the same timestamp, in a
	// single write transaction. Either both lists change or neither does.
	// Edges are never deduplicated.
	AddEdge(ctx context.Context, source, target uuid.UUID, relationType string, weight float32) error

	// View runs fn against one read snapshot. fn must not write through the
	// Driver while the view is open.
	View(ctx context.Context, fn func(Reader) error) error

	// Close releases the driver's resources.
	Close() error
}
