// Package memory defines the records persisted by memgraph: memories, their
// cognitive type, and the directed relationships between them.
//
// A Memory carries its own embedding and a denormalized list of outgoing
// edges. The denormalized list is informational only: the storage driver's
// adjacency tables are the source of truth for traversal, and callers are
// responsible for keeping the two consistent.
package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultImportance is the importance assigned to new memories.
	DefaultImportance float32 = 1.0

	// DefaultDecayRate is the decay rate assigned to new memories.
	DefaultDecayRate float32 = 0.1
)

// Memory is a single unit of agent knowledge.
type Memory struct {
	// ID is a UUIDv7, so ids sort by creation time.
	ID uuid.UUID `json:"id"`

	// Content is the raw text payload.
	Content string `json:"content"`

	// Embedding is the vector representation of Content. Dimensionality is
	// not enforced here; the vector index rejects mismatches.
	Embedding []float32 `json:"embedding"`

	// Type is the cognitive classification of the memory.
	Type Type `json:"memory_type"`

	// Metadata is arbitrary structured data (user ids, sources, topics...).
	// Values are JSON values: after a storage round trip numbers come back
	// as float64, objects as map[string]any and arrays as []any.
	Metadata map[string]any `json:"metadata"`

	// Edges is the denormalized outgoing edge list carried on the record.
	Edges []Edge `json:"edges"`

	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// AccessCount, Importance and DecayRate are carried for a recency
	// subsystem; nothing in memgraph mutates them.
	AccessCount uint64  `json:"access_count"`
	Importance  float32 `json:"importance"`
	DecayRate   float32 `json:"decay_rate"`
}

// NewMemory creates a memory with a fresh time-ordered id and default
// cognitive metrics.
func NewMemory(content string, embedding []float32, t Type) *Memory {
	now := Now()
	return &Memory{
		ID:             uuid.Must(uuid.NewV7()),
		Content:        content,
		Embedding:      embedding,
		Type:           t,
		Metadata:       map[string]any{},
		Edges:          []Edge{},
		CreatedAt:      now,
		LastAccessedAt: now,
		Importance:     DefaultImportance,
		DecayRate:      DefaultDecayRate,
	}
}

// Now returns the current UTC time stripped of its monotonic reading so that
// timestamps compare equal after a serialization round trip.
func Now() time.Time {
	return time.Now().UTC().Round(0)
}

// Kind returns the memory's type tag, or the empty string when unset.
func (m *Memory) Kind() Kind {
	if m.Type == nil {
		return ""
	}
	return m.Type.Kind()
}

// memoryAlias has Memory's fields without its methods, so the JSON codecs
// below can reuse the struct tags without recursing.
type memoryAlias Memory

type memoryJSON struct {
	*memoryAlias
	Type json.RawMessage `json:"memory_type"`
}

// MarshalJSON encodes the memory with its type in the tagged
// {"type": ..., "data": ...} form.
func (m Memory) MarshalJSON() ([]byte, error) {
	typeJSON, err := MarshalType(m.Type)
	if err != nil {
		return nil, err
	}

	alias := memoryAlias(m)
	return json.Marshal(memoryJSON{
		memoryAlias: &alias,
		Type:        typeJSON,
	})
}

// UnmarshalJSON decodes a memory produced by MarshalJSON.
func (m *Memory) UnmarshalJSON(data []byte) error {
	aux := memoryJSON{memoryAlias: (*memoryAlias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.Type) == 0 || string(aux.Type) == "null" {
		m.Type = nil
		return nil
	}

	t, err := UnmarshalType(aux.Type)
	if err != nil {
		return fmt.Errorf("decoding memory_type: %w", err)
	}
	m.Type = t

	return nil
}
