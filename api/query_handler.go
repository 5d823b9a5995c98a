package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memgraph/pkg/query"
)

// QueryResponse is the body of a successful POST /v1/query.
type QueryResponse struct {
	Results []query.Result `json:"results"`
	Count   int            `json:"count"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Memories      int    `json:"memories"`
	IndexProvider string `json:"index_provider"`
}

// handleQuery parses a Query body and executes it. Parse and validation
// failures are reported as 400 before storage is touched.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	q, err := query.Parse(c.Body())
	if err != nil {
		return err
	}

	results, err := s.config.Engine.Execute(c.UserContext(), q)
	if err != nil {
		return err
	}

	return c.JSON(QueryResponse{Results: results, Count: len(results)})
}

// handleStats reports the memory count and the vector index backend.
func (s *Server) handleStats(c *fiber.Ctx) error {
	all, err := s.config.Storage.ListMemories(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(StatsResponse{
		Memories:      len(all),
		IndexProvider: s.config.IndexProvider,
	})
}
