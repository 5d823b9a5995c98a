package mcp

import (
	"time"

	"github.com/papercomputeco/memgraph/pkg/memory"
)

// MemorySummary is the agent-facing view of a memory. Embeddings are left
// out; EmbeddingDim reports their length.
type MemorySummary struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	MemoryType   string         `json:"memory_type"`
	Metadata     map[string]any `json:"metadata"`
	Importance   float32        `json:"importance"`
	AccessCount  uint64         `json:"access_count"`
	EmbeddingDim int            `json:"embedding_dim"`
	CreatedAt    string         `json:"created_at"`
}

// EdgeSummary is one adjacency entry. PeerID is the target of an outbound
// edge or the source of an inbound one.
type EdgeSummary struct {
	PeerID       string  `json:"peer_id"`
	RelationType string  `json:"relation_type"`
	Weight       float32 `json:"weight"`
	CreatedAt    string  `json:"created_at"`
}

func summarize(m *memory.Memory) MemorySummary {
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return MemorySummary{
		ID:           m.ID.String(),
		Content:      m.Content,
		MemoryType:   string(m.Kind()),
		Metadata:     metadata,
		Importance:   m.Importance,
		AccessCount:  m.AccessCount,
		EmbeddingDim: len(m.Embedding),
		CreatedAt:    m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func summarizeOutbound(edges []memory.Edge) []EdgeSummary {
	out := make([]EdgeSummary, len(edges))
	for i, e := range edges {
		out[i] = EdgeSummary{
			PeerID:       e.TargetID.String(),
			RelationType: e.RelationType,
			Weight:       e.Weight,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	return out
}

func summarizeInbound(edges []memory.InboundEdge) []EdgeSummary {
	in := make([]EdgeSummary, len(edges))
	for i, e := range edges {
		in[i] = EdgeSummary{
			PeerID:       e.SourceID.String(),
			RelationType: e.RelationType,
			Weight:       e.Weight,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	return in
}
