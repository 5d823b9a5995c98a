// Package mcp provides an MCP (Model Context Protocol) server that lets agents
// query memgraph.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memgraph/pkg/query"
	"github.com/papercomputeco/memgraph/pkg/storage"
	"github.com/papercomputeco/memgraph/pkg/utils"
)

type Config struct {
	// Storage serves get_memory and get_edges.
	Storage storage.Driver

	// Engine serves query_memories.
	Engine *query.Engine

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memgraph tools.
func NewServer(c Config) (*Server, error) {
	if c.Storage == nil {
		return nil, errors.New("storage driver is required")
	}
	if c.Engine == nil {
		return nil, errors.New("query engine is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "memgraph",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        queryToolName,
		Description: queryDescription,
	}, s.handleQuery)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getMemoryToolName,
		Description: getMemoryDescription,
	}, s.handleGetMemory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getEdgesToolName,
		Description: getEdgesDescription,
	}, s.handleGetEdges)

	s.mcpServer = mcpServer

	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolError reports a failure to the calling agent rather than to the
// protocol layer.
func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult serializes output into a TextContent block alongside the
// structured content, for clients that only read text.
func textResult(output any) *mcp.CallToolResult {
	data, err := json.Marshal(output)
	if err != nil {
		return toolError("Failed to serialize results: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}
