package storage

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
)

// Key returns the 16-byte table key for id.
func Key(id uuid.UUID) []byte {
	k := make([]byte, len(id))
	copy(k, id[:])
	return k
}

// EncodeMemory serializes m for the memories table.
func EncodeMemory(m *memory.Memory) ([]byte, error) {
	if m == nil {
		return nil, &Error{Op: "encode memory", Err: fmt.Errorf("nil memory")}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, &Error{Op: "encode memory " + m.ID.String(), Err: err}
	}
	return data, nil
}

// DecodeMemory deserializes a memories table value.
func DecodeMemory(data []byte) (*memory.Memory, error) {
	var m memory.Memory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &Error{Op: "decode memory", Err: err}
	}
	return &m, nil
}

// EncodeEdges serializes an adjacency list.
func EncodeEdges[E memory.Edge | memory.InboundEdge](edges []E) ([]byte, error) {
	data, err := json.Marshal(edges)
	if err != nil {
		return nil, &Error{Op: "encode edges", Err: err}
	}
	return data, nil
}

// DecodeEdges deserializes an adjacency list. Empty input yields an empty,
// non-nil list.
func DecodeEdges[E memory.Edge | memory.InboundEdge](data []byte) ([]E, error) {
	edges := []E{}
	if len(data) == 0 {
		return edges, nil
	}
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, &Error{Op: "decode edges", Err: err}
	}
	return edges, nil
}
