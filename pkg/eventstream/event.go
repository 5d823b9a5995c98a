package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemorySaved is emitted after a memory is saved and indexed.
	EventTypeMemorySaved = "memgraph.memory.saved"

	// EventTypeEdgeAdded is emitted after an edge is committed.
	EventTypeEdgeAdded = "memgraph.edge.added"
)

// Event is a transport-neutral change notification. Exactly one of Memory
// and Edge is set, according to EventType.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// Key is the memory id the event concerns: the saved memory, or the
	// source of the edge. Backends partition by it.
	Key uuid.UUID `json:"key"`

	Memory *memory.Memory `json:"memory,omitempty"`
	Edge   *EdgeAdded     `json:"edge,omitempty"`
}

// EdgeAdded describes a committed edge.
type EdgeAdded struct {
	SourceID     uuid.UUID `json:"source_id"`
	TargetID     uuid.UUID `json:"target_id"`
	RelationType string    `json:"relation_type"`
	Weight       float32   `json:"weight"`
}

// NewMemorySaved builds the event for a saved memory.
func NewMemorySaved(m *memory.Memory) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMemorySaved,
		EventID:       "evt_" + uuid.Must(uuid.NewV7()).String(),
		EmittedAt:     memory.Now(),
		Key:           m.ID,
		Memory:        m,
	}
}

// NewEdgeAdded builds the event for a committed edge.
func NewEdgeAdded(source, target uuid.UUID, relationType string, weight float32) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeEdgeAdded,
		EventID:       "evt_" + uuid.Must(uuid.NewV7()).String(),
		EmittedAt:     memory.Now(),
		Key:           source,
		Edge: &EdgeAdded{
			SourceID:     source,
			TargetID:     target,
			RelationType: relationType,
			Weight:       weight,
		},
	}
}
