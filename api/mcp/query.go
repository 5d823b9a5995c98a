package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memgraph/pkg/query"
)

var (
	queryToolName    = "query_memories"
	queryDescription = "Retrieve memories by hybrid search. Optionally seeds from an embedding by cosine similarity, keeps memories matching a filter, expands along graph edges, and returns results ranked by score. With no embedding every memory is a candidate with score 1."
)

// QueryInput is the argument object of query_memories. It mirrors the
// JSON query accepted by POST /v1/query with the nesting flattened.
type QueryInput struct {
	Embedding []float32      `json:"embedding,omitempty" jsonschema:"query embedding; omit to consider every memory"`
	Threshold *float32       `json:"threshold,omitempty" jsonschema:"drop vector seeds scoring below this similarity"`
	Filter    map[string]any `json:"filter,omitempty" jsonschema:"filter object with keys id, memory_type, metadata, and, or"`
	Direction string         `json:"direction,omitempty" jsonschema:"graph expansion direction: outbound, inbound or both; omit to skip expansion"`
	EdgeTypes []string       `json:"edge_types,omitempty" jsonschema:"only follow edges with these relation types"`
	Depth     *int           `json:"depth,omitempty" jsonschema:"number of expansion hops (default 1)"`
	Limit     *int           `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

// QueryResult is one ranked memory.
type QueryResult struct {
	Memory MemorySummary `json:"memory"`
	Score  float32       `json:"score"`
}

// QueryOutput is the structured output of query_memories.
type QueryOutput struct {
	Results []QueryResult `json:"results"`
	Count   int           `json:"count"`
}

// toQuery builds a validated Query from the tool input.
func (in QueryInput) toQuery() (*query.Query, error) {
	q := &query.Query{Limit: in.Limit}

	if in.Embedding != nil {
		q.Search = &query.Search{Vector: &query.VectorSearch{
			Embedding: in.Embedding,
			Threshold: in.Threshold,
		}}
	}

	if in.Filter != nil {
		raw, err := json.Marshal(in.Filter)
		if err != nil {
			return nil, err
		}
		f, err := query.ParseFilter(raw)
		if err != nil {
			return nil, err
		}
		q.Filter = f
	}

	if in.Direction != "" {
		d, err := query.ParseDirection(in.Direction)
		if err != nil {
			return nil, err
		}
		q.Traverse = &query.Traverse{
			Direction: d,
			EdgeTypes: in.EdgeTypes,
			Depth:     in.Depth,
		}
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// handleQuery processes a query_memories request.
func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	logger := s.config.Logger

	q, err := input.toQuery()
	if err != nil {
		return toolError("Invalid query: %v", err), QueryOutput{}, nil
	}

	logger.Debug("MCP query request",
		"embedding_dim", len(input.Embedding),
		"filter", q.Filter != nil,
		"direction", input.Direction,
	)

	results, err := s.config.Engine.Execute(ctx, q)
	if err != nil {
		logger.Error("MCP query failed", "error", err)
		return toolError("Query failed: %v", err), QueryOutput{}, nil
	}

	output := QueryOutput{
		Results: make([]QueryResult, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = QueryResult{Memory: summarize(r.Memory), Score: r.Score}
	}

	return textResult(output), output, nil
}
