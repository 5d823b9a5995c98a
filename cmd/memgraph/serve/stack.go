package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/memgraph/api"
	"github.com/papercomputeco/memgraph/api/mcp"
	"github.com/papercomputeco/memgraph/pkg/cliui"
	"github.com/papercomputeco/memgraph/pkg/config"
	"github.com/papercomputeco/memgraph/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/memgraph/pkg/eventstream/utils"
	"github.com/papercomputeco/memgraph/pkg/ingest"
	"github.com/papercomputeco/memgraph/pkg/query"
	"github.com/papercomputeco/memgraph/pkg/storage"
	storageutils "github.com/papercomputeco/memgraph/pkg/storage/utils"
	"github.com/papercomputeco/memgraph/pkg/vector"
	vectorutils "github.com/papercomputeco/memgraph/pkg/vector/utils"
)

// stack is every long-lived component behind the API server.
type stack struct {
	storage   storage.Driver
	index     vector.Index
	publisher eventstream.Publisher
	ingest    *ingest.Service
	pool      *ingest.Pool
	engine    *query.Engine
	server    *api.Server

	// reindexed is the number of embeddings restored into the index at start.
	reindexed int
}

// stackOpts carries the resolved settings for buildStack.
type stackOpts struct {
	config       *config.Config
	sqlitePath   string
	vectorAPIKey string
	logger       *slog.Logger

	// progress shows a spinner for the startup reindex when set.
	progress io.Writer
}

// buildStack opens storage, the vector index and the event publisher, and
// wires them into the ingest, query and API layers. An index that lives only
// in this process is rebuilt from durable storage.
func buildStack(ctx context.Context, o stackOpts) (_ *stack, err error) {
	cfg := o.config
	s := &stack{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.storage, err = storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{
		ProviderType: cfg.Storage.Provider,
		SQLitePath:   o.sqlitePath,
		PostgresDSN:  cfg.Storage.PostgresDSN,
		Logger:       o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage driver: %w", err)
	}

	vectorOpts := o.vectorIndexOpts()
	s.index, err = vectorutils.NewVectorIndex(ctx, vectorOpts)
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	s.publisher, err = eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.EventStream.Provider,
		Brokers:      splitList(cfg.EventStream.Brokers),
		Topic:        cfg.EventStream.Topic,
		Logger:       o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	s.ingest = ingest.NewService(ingest.Config{
		Storage:   s.storage,
		Index:     s.index,
		Publisher: s.publisher,
		Logger:    o.logger,
	})

	if vectorutils.InProcess(vectorOpts) && storageutils.Durable(cfg.Storage.Provider) {
		rebuild := func() (rerr error) {
			s.reindexed, rerr = s.ingest.Reindex(ctx)
			return rerr
		}
		if o.progress != nil {
			err = cliui.Step(o.progress, "Rebuilding vector index", rebuild)
		} else {
			err = rebuild()
		}
		if err != nil {
			return nil, fmt.Errorf("rebuilding vector index: %w", err)
		}
	}

	s.pool, err = ingest.NewPool(&ingest.PoolConfig{
		Service:    s.ingest,
		NumWorkers: cfg.Ingest.Workers,
		QueueSize:  cfg.Ingest.QueueSize,
		Logger:     o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ingest pool: %w", err)
	}

	s.engine = query.NewEngine(query.Config{
		Storage: s.storage,
		Index:   s.index,
		Logger:  o.logger,
	})

	mcpServer, err := mcp.NewServer(mcp.Config{
		Storage: s.storage,
		Engine:  s.engine,
		Logger:  o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	s.server, err = api.NewServer(api.Config{
		ListenAddr:    cfg.API.Listen,
		Storage:       s.storage,
		Engine:        s.engine,
		Ingest:        s.ingest,
		Pool:          s.pool,
		IndexProvider: cfg.VectorIndex.Provider,
		MCPHandler:    mcpServer.Handler(),
		Logger:        o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	return s, nil
}

func (o stackOpts) vectorIndexOpts() *vectorutils.NewVectorIndexOpts {
	vc := o.config.VectorIndex
	return &vectorutils.NewVectorIndexOpts{
		ProviderType: vc.Provider,
		Target:       vc.Target,
		Dimensions:   int(vc.Dimensions),
		Collection:   vc.Collection,
		Exact:        vc.Exact,
		HnswEf:       uint64(vc.HnswEf),
		APIKey:       o.vectorAPIKey,
		Logger:       o.logger,
	}
}

// close drains the ingest pool before closing what it writes to.
func (s *stack) close() error {
	if s.pool != nil {
		s.pool.Close()
	}

	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
