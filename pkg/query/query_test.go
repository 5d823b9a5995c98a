package query_test

import (
	"encoding/json"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/query"
)

var _ = Describe("Parse", func() {
	It("parses a full query", func() {
		id := uuid.Must(uuid.NewV7())
		q, err := query.Parse([]byte(`{
			"filter": {"id": "` + id.String() + `"},
			"search": {"vector": {"text": "hiking", "embedding": [0.1, 0.9, 0.1], "threshold": 0.5}},
			"traverse": {"direction": "both", "edge_types": ["relates_to"], "depth": 2},
			"rank_by": {"formula": "score * importance"},
			"limit": 5
		}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(q.Filter).To(Equal(query.ByID{ID: id}))
		Expect(q.Embedding()).To(Equal([]float32{0.1, 0.9, 0.1}))
		Expect(*q.Search.Vector.Text).To(Equal("hiking"))

		threshold, ok := q.Threshold()
		Expect(ok).To(BeTrue())
		Expect(threshold).To(Equal(float32(0.5)))

		Expect(q.Traverse.Direction).To(Equal(query.Both))
		Expect(q.Traverse.EdgeTypes).To(Equal([]string{"relates_to"}))
		Expect(q.Traverse.Hops()).To(Equal(2))
		Expect(q.RankBy.Formula).To(Equal("score * importance"))
		Expect(q.SeedLimit()).To(Equal(5))
	})

	It("accepts an empty query", func() {
		q, err := query.Parse([]byte(`{}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Filter).To(BeNil())
		Expect(q.Embedding()).To(BeNil())
		Expect(q.SeedLimit()).To(Equal(query.DefaultSeedLimit))
		Expect(q.Traverse.Hops()).To(BeZero())
	})

	It("treats a null filter as absent", func() {
		q, err := query.Parse([]byte(`{"filter": null}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Filter).To(BeNil())
	})

	It("defaults the traversal to one outbound hop", func() {
		q, err := query.Parse([]byte(`{"traverse": {}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Traverse.Direction).To(Equal(query.Outbound))
		Expect(q.Traverse.Hops()).To(Equal(1))
	})

	It("treats depth 0 as one hop", func() {
		q, err := query.Parse([]byte(`{"traverse": {"direction": "inbound", "depth": 0}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Traverse.Hops()).To(Equal(1))
	})

	DescribeTable("rejects invalid queries with a query error",
		func(body, field string) {
			_, err := query.Parse([]byte(body))
			Expect(err).To(HaveOccurred())

			var qerr *query.Error
			Expect(err).To(BeAssignableToTypeOf(qerr))
			Expect(err.(*query.Error).Field).To(Equal(field))
		},
		Entry("unknown direction", `{"traverse": {"direction": "sideways"}}`, "traverse.direction"),
		Entry("empty direction", `{"traverse": {"direction": ""}}`, "traverse.direction"),
		Entry("non-string direction", `{"traverse": {"direction": 1}}`, "traverse.direction"),
		Entry("negative depth", `{"traverse": {"depth": -1}}`, "traverse.depth"),
		Entry("negative limit", `{"limit": -3}`, "limit"),
		Entry("empty embedding", `{"search": {"vector": {"embedding": []}}}`, "search.vector.embedding"),
		Entry("malformed id", `{"filter": {"id": "not-a-uuid"}}`, "filter.id"),
		Entry("unknown memory type", `{"filter": {"memory_type": "Dream"}}`, "filter.memory_type"),
		Entry("non-object filter", `{"filter": ["id"]}`, "filter"),
		Entry("non-object metadata", `{"filter": {"metadata": 3}}`, "filter.metadata"),
		Entry("malformed nested filter", `{"filter": {"or": [{"id": 7}]}}`, "filter.or[0].id"),
		Entry("malformed JSON", `{"limit": `, ""),
	)
})

var _ = Describe("Direction", func() {
	It("parses every direction", func() {
		for _, d := range []query.Direction{query.Outbound, query.Inbound, query.Both} {
			parsed, err := query.ParseDirection(d.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(d))
		}
	})

	It("reports which lists to follow", func() {
		Expect(query.Outbound.Outbound()).To(BeTrue())
		Expect(query.Outbound.Inbound()).To(BeFalse())
		Expect(query.Inbound.Outbound()).To(BeFalse())
		Expect(query.Inbound.Inbound()).To(BeTrue())
		Expect(query.Both.Outbound()).To(BeTrue())
		Expect(query.Both.Inbound()).To(BeTrue())
	})

	It("encodes as a string", func() {
		data, err := json.Marshal(query.Traverse{Direction: query.Inbound})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"direction":"inbound"}`))
	})
})

var _ = Describe("Filter", func() {
	var m *memory.Memory

	BeforeEach(func() {
		m = memory.NewMemory("Alice likes hiking", nil, memory.Semantic{Confidence: 0.9})
		m.Metadata["topic"] = "hobbies"
		m.Metadata["tags"] = []any{"outdoor", "sport"}
		m.Metadata["score"] = float64(3)
	})

	It("matches by id", func() {
		Expect(query.ByID{ID: m.ID}.Match(m)).To(BeTrue())
		Expect(query.ByID{ID: uuid.Must(uuid.NewV7())}.Match(m)).To(BeFalse())
	})

	It("matches by memory type", func() {
		Expect(query.ByMemoryType{Kind: memory.KindSemantic}.Match(m)).To(BeTrue())
		Expect(query.ByMemoryType{Kind: memory.KindEpisodic}.Match(m)).To(BeFalse())
	})

	It("matches metadata by JSON value", func() {
		Expect(query.ByMetadata{Key: "topic", Value: "hobbies"}.Match(m)).To(BeTrue())
		Expect(query.ByMetadata{Key: "score", Value: 3}.Match(m)).To(BeTrue())
		Expect(query.ByMetadata{Key: "tags", Value: []string{"outdoor", "sport"}}.Match(m)).To(BeTrue())
		Expect(query.ByMetadata{Key: "topic", Value: "work"}.Match(m)).To(BeFalse())
		Expect(query.ByMetadata{Key: "missing", Value: nil}.Match(m)).To(BeFalse())
	})

	It("combines with and/or", func() {
		semantic := query.ByMemoryType{Kind: memory.KindSemantic}
		episodic := query.ByMemoryType{Kind: memory.KindEpisodic}

		Expect(query.And{}.Match(m)).To(BeTrue())
		Expect(query.Or{}.Match(m)).To(BeFalse())
		Expect(query.And{semantic, episodic}.Match(m)).To(BeFalse())
		Expect(query.Or{semantic, episodic}.Match(m)).To(BeTrue())
	})

	It("ANDs the keys of one object", func() {
		f, err := query.ParseFilter([]byte(`{"memory_type": "Semantic", "metadata": {"topic": "hobbies"}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(query.And{
			query.ByMemoryType{Kind: memory.KindSemantic},
			query.ByMetadata{Key: "topic", Value: "hobbies"},
		}))
	})

	It("ignores unknown keys", func() {
		f, err := query.ParseFilter([]byte(`{"owner": "alice"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(query.And{}))
		Expect(f.Match(m)).To(BeTrue())
	})

	It("parses nested composites", func() {
		f, err := query.ParseFilter([]byte(`{"or": [{"memory_type": "Episodic"}, {"and": [{"metadata": {"topic": "hobbies"}}]}]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(query.Or{
			query.ByMemoryType{Kind: memory.KindEpisodic},
			query.And{query.ByMetadata{Key: "topic", Value: "hobbies"}},
		}))
		Expect(f.Match(m)).To(BeTrue())
	})

	It("round trips through JSON", func() {
		original := query.Or{
			query.ByID{ID: m.ID},
			query.And{
				query.ByMemoryType{Kind: memory.KindProcedural},
				query.ByMetadata{Key: "topic", Value: "cooking"},
			},
		}

		data, err := json.Marshal(original)
		Expect(err).NotTo(HaveOccurred())

		parsed, err := query.ParseFilter(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(original))
	})
})
