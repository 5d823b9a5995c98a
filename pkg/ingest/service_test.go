package ingest_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/eventstream"
	"github.com/papercomputeco/memgraph/pkg/ingest"
	"github.com/papercomputeco/memgraph/pkg/logger"
	"github.com/papercomputeco/memgraph/pkg/query"
	"github.com/papercomputeco/memgraph/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
	"github.com/papercomputeco/memgraph/pkg/vector"
	"github.com/papercomputeco/memgraph/pkg/vector/flat"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *eventstream.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType
	}
	return types
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		driver    *inmemory.Driver
		index     *testutils.MockIndex
		publisher *recordingPublisher
		service   *ingest.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		index = testutils.NewMockIndex()
		publisher = &recordingPublisher{}
		service = ingest.NewService(ingest.Config{
			Storage:   driver,
			Index:     index,
			Publisher: publisher,
			Logger:    logger.Nop(),
		})
	})

	Describe("Ingest", func() {
		It("saves, indexes and publishes", func() {
			m := testutils.NewSemantic("Alice likes hiking", 0.1, 0.9, 0.1)

			Expect(service.Ingest(ctx, m)).To(Succeed())

			got, ok, err := driver.GetMemory(ctx, m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(m))

			Expect(index.Added()).To(Equal([]uuid.UUID{m.ID}))
			Expect(publisher.types()).To(Equal([]string{eventstream.EventTypeMemorySaved}))
		})

		It("skips the index for memories without an embedding", func() {
			m := testutils.NewSemantic("no vector")

			Expect(service.Ingest(ctx, m)).To(Succeed())
			Expect(driver.Count()).To(Equal(1))
			Expect(index.Added()).To(BeEmpty())
		})

		It("keeps the memory saved when indexing fails", func() {
			index.AddErr = &vector.Error{Op: "add", Err: vector.ErrDimensionMismatch}
			m := testutils.NewSemantic("m", 1, 0)

			err := service.Ingest(ctx, m)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(driver.Count()).To(Equal(1))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("replaces the index entry when a memory is saved again", func() {
			m := testutils.NewSemantic("Alice likes hiking", 1, 0)
			Expect(service.Ingest(ctx, m)).To(Succeed())
			Expect(index.Deleted()).To(BeEmpty())

			m.Embedding = []float32{0, 1}
			Expect(service.Ingest(ctx, m)).To(Succeed())

			Expect(index.Deleted()).To(Equal([]uuid.UUID{m.ID}))
			Expect(index.Added()).To(Equal([]uuid.UUID{m.ID, m.ID}))
		})

		It("drops the index entry when the embedding is removed", func() {
			m := testutils.NewSemantic("m", 1, 0)
			Expect(service.Ingest(ctx, m)).To(Succeed())

			m.Embedding = nil
			Expect(service.Ingest(ctx, m)).To(Succeed())

			Expect(index.Deleted()).To(Equal([]uuid.UUID{m.ID}))
			Expect(index.Added()).To(Equal([]uuid.UUID{m.ID}))
		})

		It("does not fail when publishing fails", func() {
			publisher.err = errors.New("broker down")

			Expect(service.Ingest(ctx, testutils.NewSemantic("m", 1, 0))).To(Succeed())
		})

		It("works without a publisher", func() {
			service = ingest.NewService(ingest.Config{Storage: driver, Index: index, Logger: logger.Nop()})

			Expect(service.Ingest(ctx, testutils.NewSemantic("m", 1, 0))).To(Succeed())
		})
	})

	Describe("Ingest with a flat index", func() {
		var (
			index  *flat.Index
			engine *query.Engine
		)

		BeforeEach(func() {
			index = flat.New(flat.Config{}, logger.Nop())
			service = ingest.NewService(ingest.Config{Storage: driver, Index: index, Logger: logger.Nop()})
			engine = query.NewEngine(query.Config{Storage: driver, Index: index, Logger: logger.Nop()})
		})

		It("keeps other memories in the seed set after repeated updates", func() {
			a := testutils.NewSemantic("a", 1, 0, 0)
			b := testutils.NewSemantic("b", 0.9, 0.1, 0)
			c := testutils.NewSemantic("c", 0.8, 0.2, 0)
			Expect(service.Ingest(ctx, b)).To(Succeed())
			Expect(service.Ingest(ctx, c)).To(Succeed())
			for range 3 {
				Expect(service.Ingest(ctx, a)).To(Succeed())
			}
			Expect(index.Len()).To(Equal(3))

			q, err := query.Parse([]byte(`{"search": {"vector": {"embedding": [1, 0, 0]}}, "limit": 3}`))
			Expect(err).NotTo(HaveOccurred())
			results, err := engine.Execute(ctx, q)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Memory.ID).To(Equal(a.ID))
		})

		It("stops matching on the old embedding after it changes", func() {
			a := testutils.NewSemantic("a", 1, 0, 0)
			Expect(service.Ingest(ctx, a)).To(Succeed())

			a.Embedding = []float32{0, 0, 1}
			Expect(service.Ingest(ctx, a)).To(Succeed())

			hits, err := index.Search(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Score).To(BeNumerically("~", 0, 1e-6))
		})

		It("indexes a memory whose first indexing failed when it is saved again", func() {
			Expect(service.Ingest(ctx, testutils.NewSemantic("x", 1, 0, 0))).To(Succeed())

			bad := testutils.NewSemantic("bad", 1, 0)
			Expect(service.Ingest(ctx, bad)).To(MatchError(vector.ErrDimensionMismatch))

			bad.Embedding = []float32{0, 1, 0}
			Expect(service.Ingest(ctx, bad)).To(Succeed())
			Expect(index.Len()).To(Equal(2))
		})
	})

	Describe("Link", func() {
		It("adds the edge and publishes", func() {
			a := testutils.NewSemantic("a")
			b := testutils.NewSemantic("b")

			Expect(service.Link(ctx, a.ID, b.ID, "relates_to", 0.8)).To(Succeed())

			out, err := driver.GetOutboundEdges(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(1))
			Expect(out[0].TargetID).To(Equal(b.ID))

			Expect(publisher.types()).To(Equal([]string{eventstream.EventTypeEdgeAdded}))
		})
	})

	Describe("Reindex", func() {
		It("adds every stored embedding to the index", func() {
			a := testutils.NewSemantic("a", 1, 0)
			b := testutils.NewSemantic("b", 0, 1)
			Expect(driver.SaveMemory(ctx, a)).To(Succeed())
			Expect(driver.SaveMemory(ctx, b)).To(Succeed())
			Expect(driver.SaveMemory(ctx, testutils.NewSemantic("c"))).To(Succeed())

			n, err := service.Reindex(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
			Expect(index.Added()).To(Equal([]uuid.UUID{a.ID, b.ID}))
		})

		It("stops at the first index failure", func() {
			Expect(driver.SaveMemory(ctx, testutils.NewSemantic("a", 1, 0))).To(Succeed())
			index.AddErr = errors.New("index closed")

			_, err := service.Reindex(ctx)
			Expect(err).To(MatchError(ContainSubstring("index closed")))
		})
	})
})
