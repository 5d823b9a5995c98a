// Package api provides the memgraph HTTP API: memory and edge writes, reads,
// and hybrid queries.
package api

import (
	"log/slog"
	"net/http"

	"github.com/papercomputeco/memgraph/pkg/ingest"
	"github.com/papercomputeco/memgraph/pkg/query"
	"github.com/papercomputeco/memgraph/pkg/storage"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Storage serves memory and edge reads.
	Storage storage.Driver

	// Engine executes queries.
	Engine *query.Engine

	// Ingest performs synchronous writes.
	Ingest *ingest.Service

	// Pool, when set, accepts writes made with ?async=true.
	Pool *ingest.Pool

	// IndexProvider names the vector index backend reported by /v1/stats.
	IndexProvider string

	// MCPHandler, when set, is mounted at /mcp.
	MCPHandler http.Handler

	Logger *slog.Logger
}
