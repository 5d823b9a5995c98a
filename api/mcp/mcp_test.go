package mcp

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/logger"
	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/query"
	"github.com/papercomputeco/memgraph/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
	"github.com/papercomputeco/memgraph/pkg/vector"
)

var _ = Describe("MCP Server", func() {
	var (
		server *Server
		driver *inmemory.Driver
		index  *testutils.MockIndex
		ctx    context.Context

		hiking, trail *memory.Memory
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()

		hiking = testutils.NewSemantic("Alice likes hiking", 0.1, 0.9, 0.1)
		hiking.Metadata["topic"] = "hobbies"
		trail = testutils.NewEpisodic("Hiked the ridge trail")
		Expect(driver.SaveMemory(ctx, hiking)).To(Succeed())
		Expect(driver.SaveMemory(ctx, trail)).To(Succeed())
		Expect(driver.AddEdge(ctx, hiking.ID, trail.ID, "relates_to", 0.8)).To(Succeed())

		index = testutils.NewMockIndex(vector.Result{ID: hiking.ID, Score: 0.95})

		var err error
		server, err = NewServer(Config{
			Storage: driver,
			Engine:  query.NewEngine(query.Config{Storage: driver, Index: index, Logger: logger.Nop()}),
			Logger:  logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when storage driver is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
		})

		It("returns an error when the engine is nil", func() {
			_, err := NewServer(Config{Storage: driver, Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("query engine is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{
				Storage: driver,
				Engine:  query.NewEngine(query.Config{Storage: driver, Logger: logger.Nop()}),
			})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("query_memories", func() {
		It("seeds, expands and ranks", func() {
			result, output, err := server.handleQuery(ctx, nil, QueryInput{
				Embedding: []float32{0.1, 0.9, 0.1},
				Direction: "outbound",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Count).To(Equal(2))
			Expect(output.Results[0].Memory.ID).To(Equal(hiking.ID.String()))
			Expect(output.Results[0].Score).To(Equal(float32(0.95)))
			Expect(output.Results[1].Memory.ID).To(Equal(trail.ID.String()))
			Expect(output.Results[1].Score).To(BeNumerically("~", 0.475, 1e-6))
		})

		It("applies a filter map", func() {
			_, output, err := server.handleQuery(ctx, nil, QueryInput{
				Filter: map[string]any{"memory_type": "Episodic"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Memory.MemoryType).To(Equal("Episodic"))
		})

		It("reports an invalid direction as a tool error", func() {
			result, _, err := server.handleQuery(ctx, nil, QueryInput{Direction: "sideways"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("reports index failures as a tool error", func() {
			index.SearchErr = errors.New("index offline")

			result, _, err := server.handleQuery(ctx, nil, QueryInput{Embedding: []float32{1, 0, 0}})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("get_memory", func() {
		It("returns a summary of a stored memory", func() {
			_, output, err := server.handleGetMemory(ctx, nil, GetMemoryInput{ID: hiking.ID.String()})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Found).To(BeTrue())
			Expect(output.Memory.Content).To(Equal("Alice likes hiking"))
			Expect(output.Memory.EmbeddingDim).To(Equal(3))
			Expect(output.Memory.Metadata).To(HaveKeyWithValue("topic", "hobbies"))
		})

		It("reports unknown ids as not found", func() {
			result, output, err := server.handleGetMemory(ctx, nil, GetMemoryInput{ID: uuid.Must(uuid.NewV7()).String()})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Found).To(BeFalse())
			Expect(output.Memory).To(BeNil())
		})

		It("rejects malformed ids", func() {
			result, _, err := server.handleGetMemory(ctx, nil, GetMemoryInput{ID: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("get_edges", func() {
		It("returns both directions by default", func() {
			_, output, err := server.handleGetEdges(ctx, nil, GetEdgesInput{ID: trail.ID.String()})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Outbound).To(BeEmpty())
			Expect(output.Inbound).To(HaveLen(1))
			Expect(output.Inbound[0].PeerID).To(Equal(hiking.ID.String()))
			Expect(output.Inbound[0].Weight).To(Equal(float32(0.8)))
		})

		It("honours the direction", func() {
			_, output, err := server.handleGetEdges(ctx, nil, GetEdgesInput{ID: hiking.ID.String(), Direction: "inbound"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Outbound).To(BeEmpty())
			Expect(output.Inbound).To(BeEmpty())
		})
	})
})
