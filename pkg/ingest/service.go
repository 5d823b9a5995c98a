// Package ingest is the write path of memgraph. Storage and the vector index
// are updated one after the other and are not transactionally linked: a
// memory whose indexing fails stays saved but is only reachable by full
// scan or traversal until it is re-ingested.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/eventstream"
	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/storage"
	"github.com/papercomputeco/memgraph/pkg/vector"
)

// Config holds the collaborators of a Service.
type Config struct {
	Storage storage.Driver
	Index   vector.Index

	// Publisher receives change events. Publish failures are logged and
	// never fail the write, which is already committed by then.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Service saves memories and edges and keeps the vector index in step.
type Service struct {
	storage   storage.Driver
	index     vector.Index
	publisher eventstream.Publisher
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(c Config) *Service {
	return &Service{
		storage:   c.Storage,
		index:     c.Index,
		publisher: c.Publisher,
		logger:    c.Logger,
	}
}

// Ingest saves m, keeps the index entry of m.ID in step with its embedding,
// and publishes a memory saved event. Re-saving an existing memory replaces
// its index entry instead of adding another one, so each memory holds at
// most one entry.
func (s *Service) Ingest(ctx context.Context, m *memory.Memory) error {
	if m == nil {
		return s.storage.SaveMemory(ctx, m)
	}

	prev, existed, err := s.storage.GetMemory(ctx, m.ID)
	if err != nil {
		return err
	}

	if err := s.storage.SaveMemory(ctx, m); err != nil {
		return err
	}

	if err := s.reindexOne(ctx, m, prev, existed); err != nil {
		return err
	}

	s.logger.Debug("memory ingested",
		"id", m.ID,
		"kind", m.Kind(),
		"embedding_dim", len(m.Embedding),
	)

	s.publish(ctx, eventstream.NewMemorySaved(m))
	return nil
}

func (s *Service) reindexOne(ctx context.Context, m, prev *memory.Memory, existed bool) error {
	if existed && len(prev.Embedding) > 0 {
		if err := s.index.Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("removing previous embedding of memory %s: %w", m.ID, err)
		}
	}

	if len(m.Embedding) > 0 {
		if err := s.index.Add(ctx, m.ID, m.Embedding); err != nil {
			return fmt.Errorf("indexing memory %s: %w", m.ID, err)
		}
	}
	return nil
}

// Link adds a directed edge and publishes an edge added event. Neither
// endpoint has to exist.
func (s *Service) Link(ctx context.Context, source, target uuid.UUID, relationType string, weight float32) error {
	if err := s.storage.AddEdge(ctx, source, target, relationType, weight); err != nil {
		return err
	}

	s.publish(ctx, eventstream.NewEdgeAdded(source, target, relationType, weight))
	return nil
}

// Reindex adds the embedding of every stored memory to the index. It is used
// at startup to rebuild an index that does not outlive the process.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	all, err := s.storage.ListMemories(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing memories: %w", err)
	}

	n := 0
	for _, m := range all {
		if len(m.Embedding) == 0 {
			continue
		}
		if err := s.index.Add(ctx, m.ID, m.Embedding); err != nil {
			return n, fmt.Errorf("indexing memory %s: %w", m.ID, err)
		}
		n++
	}

	s.logger.Info("vector index rebuilt", "memories", len(all), "indexed", n)
	return n, nil
}

func (s *Service) publish(ctx context.Context, event *eventstream.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			"event_type", event.EventType,
			"key", event.Key,
			"error", err,
		)
	}
}
