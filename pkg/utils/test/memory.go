package testutils

import (
	"github.com/papercomputeco/memgraph/pkg/memory"
)

// NewSemantic creates a semantic memory with the given content and embedding.
func NewSemantic(content string, embedding ...float32) *memory.Memory {
	return memory.NewMemory(content, embedding, memory.Semantic{
		Confidence: 0.9,
		Source:     "test",
	})
}

// NewEpisodic creates an episodic memory with the given content and embedding.
func NewEpisodic(content string, embedding ...float32) *memory.Memory {
	return memory.NewMemory(content, embedding, memory.Episodic{
		Participants: []string{"Alice", "Bot"},
	})
}
