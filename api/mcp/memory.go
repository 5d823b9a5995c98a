package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memgraph/pkg/query"
)

var (
	getMemoryToolName    = "get_memory"
	getMemoryDescription = "Fetch one memory by id, including its content, type and metadata."

	getEdgesToolName    = "get_edges"
	getEdgesDescription = "List the graph edges of a memory. Outbound edges point to other memories; inbound edges are those pointing at this one."
)

// GetMemoryInput is the argument object of get_memory.
type GetMemoryInput struct {
	ID string `json:"id" jsonschema:"the memory id (UUID)"`
}

// GetMemoryOutput is the structured output of get_memory.
type GetMemoryOutput struct {
	Found  bool           `json:"found"`
	Memory *MemorySummary `json:"memory,omitempty"`
}

// GetEdgesInput is the argument object of get_edges.
type GetEdgesInput struct {
	ID        string `json:"id" jsonschema:"the memory id (UUID)"`
	Direction string `json:"direction,omitempty" jsonschema:"outbound, inbound or both (default both)"`
}

// GetEdgesOutput is the structured output of get_edges.
type GetEdgesOutput struct {
	ID       string        `json:"id"`
	Outbound []EdgeSummary `json:"outbound"`
	Inbound  []EdgeSummary `json:"inbound"`
}

// handleGetMemory processes a get_memory request. An unknown id is not an
// error; the output reports found=false.
func (s *Server) handleGetMemory(ctx context.Context, _ *mcp.CallToolRequest, input GetMemoryInput) (*mcp.CallToolResult, GetMemoryOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return toolError("Invalid memory id %q", input.ID), GetMemoryOutput{}, nil
	}

	m, ok, err := s.config.Storage.GetMemory(ctx, id)
	if err != nil {
		s.config.Logger.Error("MCP get_memory failed", "id", id, "error", err)
		return toolError("Failed to load memory: %v", err), GetMemoryOutput{}, nil
	}

	output := GetMemoryOutput{Found: ok}
	if ok {
		summary := summarize(m)
		output.Memory = &summary
	}

	return textResult(output), output, nil
}

// handleGetEdges processes a get_edges request.
func (s *Server) handleGetEdges(ctx context.Context, _ *mcp.CallToolRequest, input GetEdgesInput) (*mcp.CallToolResult, GetEdgesOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return toolError("Invalid memory id %q", input.ID), GetEdgesOutput{}, nil
	}

	direction := query.Both
	if input.Direction != "" {
		direction, err = query.ParseDirection(input.Direction)
		if err != nil {
			return toolError("%v", err), GetEdgesOutput{}, nil
		}
	}

	output := GetEdgesOutput{
		ID:       id.String(),
		Outbound: []EdgeSummary{},
		Inbound:  []EdgeSummary{},
	}

	if direction.Outbound() {
		edges, err := s.config.Storage.GetOutboundEdges(ctx, id)
		if err != nil {
			return toolError("Failed to load edges: %v", err), GetEdgesOutput{}, nil
		}
		output.Outbound = summarizeOutbound(edges)
	}
	if direction.Inbound() {
		edges, err := s.config.Storage.GetInboundEdges(ctx, id)
		if err != nil {
			return toolError("Failed to load edges: %v", err), GetEdgesOutput{}, nil
		}
		output.Inbound = summarizeInbound(edges)
	}

	return textResult(output), output, nil
}
