package api

import (
	"context"
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
)

// Server is the memgraph API server.
type Server struct {
	config Config
	app    *fiber.App
}

// NewServer creates a new API server. The storage driver, engine and ingest
// service are injected so the CLI can share them with other components.
func NewServer(config Config) (*Server, error) {
	if config.Storage == nil {
		return nil, errors.New("storage driver is required")
	}
	if config.Engine == nil {
		return nil, errors.New("query engine is required")
	}
	if config.Ingest == nil {
		return nil, errors.New("ingest service is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(config.Logger),
	})

	app.Use(compress.New())

	s := &Server{
		config: config,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/memories", s.handleCreateMemory)
	v1.Get("/memories", s.handleListMemories)
	v1.Get("/memories/:id", s.handleGetMemory)
	v1.Get("/memories/:id/edges", s.handleGetEdges)
	v1.Post("/edges", s.handleCreateEdge)
	v1.Post("/query", s.handleQuery)
	v1.Get("/stats", s.handleStats)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.config.Logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
