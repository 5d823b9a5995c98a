package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/ingest"
	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/query"
)

// CreateEdgeRequest is the body of POST /v1/edges.
type CreateEdgeRequest struct {
	SourceID     uuid.UUID `json:"source_id"`
	TargetID     uuid.UUID `json:"target_id"`
	RelationType string    `json:"relation_type"`
	Weight       float32   `json:"weight"`
}

// EdgesResponse lists the adjacency of one memory. Only the requested
// directions are present.
type EdgesResponse struct {
	ID       uuid.UUID             `json:"id"`
	Outbound *[]memory.Edge        `json:"outbound,omitempty"`
	Inbound  *[]memory.InboundEdge `json:"inbound,omitempty"`
}

// ListResponse wraps GET /v1/memories.
type ListResponse struct {
	Memories []*memory.Memory `json:"memories"`
	Count    int              `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateMemory saves a memory. A body without an id gets a fresh id
// and default bookkeeping fields. With ?async=true the write is queued and
// the response is 202.
func (s *Server) handleCreateMemory(c *fiber.Ctx) error {
	m, err := decodeMemory(c.Body())
	if err != nil {
		return err
	}

	if c.QueryBool("async") && s.config.Pool != nil {
		if !s.config.Pool.Enqueue(ingest.Job{Memory: m}) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "ingest queue is full")
		}
		return c.Status(fiber.StatusAccepted).JSON(m)
	}

	if err := s.config.Ingest.Ingest(c.UserContext(), m); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func decodeMemory(body []byte) (*memory.Memory, error) {
	var m memory.Memory
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &badRequest{msg: "invalid memory: " + err.Error()}
	}
	if m.Type == nil {
		return nil, &badRequest{msg: "memory_type is required"}
	}

	if m.ID != uuid.Nil {
		if m.Metadata == nil {
			m.Metadata = map[string]any{}
		}
		if m.Edges == nil {
			m.Edges = []memory.Edge{}
		}
		return &m, nil
	}

	fresh := memory.NewMemory(m.Content, m.Embedding, m.Type)
	if m.Metadata != nil {
		fresh.Metadata = m.Metadata
	}
	if m.Edges != nil {
		fresh.Edges = m.Edges
	}
	if m.Importance != 0 {
		fresh.Importance = m.Importance
	}
	if m.DecayRate != 0 {
		fresh.DecayRate = m.DecayRate
	}
	return fresh, nil
}

// handleListMemories returns every memory in id order.
func (s *Server) handleListMemories(c *fiber.Ctx) error {
	all, err := s.config.Storage.ListMemories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(ListResponse{Memories: all, Count: len(all)})
}

// handleGetMemory returns a single memory by id.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	m, ok, err := s.config.Storage.GetMemory(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound
	}
	return c.JSON(m)
}

// handleGetEdges returns the adjacency lists of a memory. The direction
// query parameter defaults to outbound.
func (s *Server) handleGetEdges(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	direction := query.Outbound
	if raw := c.Query("direction"); raw != "" {
		direction, err = query.ParseDirection(raw)
		if err != nil {
			return err
		}
	}

	ctx := c.UserContext()
	resp := EdgesResponse{ID: id}

	if direction.Outbound() {
		out, err := s.config.Storage.GetOutboundEdges(ctx, id)
		if err != nil {
			return err
		}
		resp.Outbound = &out
	}
	if direction.Inbound() {
		in, err := s.config.Storage.GetInboundEdges(ctx, id)
		if err != nil {
			return err
		}
		resp.Inbound = &in
	}

	return c.JSON(resp)
}

// handleCreateEdge adds a directed edge. Endpoints need not exist.
func (s *Server) handleCreateEdge(c *fiber.Ctx) error {
	var req CreateEdgeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return &badRequest{msg: "invalid edge: " + err.Error()}
	}
	if req.SourceID == uuid.Nil || req.TargetID == uuid.Nil {
		return &badRequest{msg: "source_id and target_id are required"}
	}

	err := s.config.Ingest.Link(c.UserContext(), req.SourceID, req.TargetID, req.RelationType, req.Weight)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &badRequest{msg: "invalid memory id: " + raw}
	}
	return id, nil
}
