package sqlitevec_test

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/logger"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
	"github.com/papercomputeco/memgraph/pkg/vector"
	"github.com/papercomputeco/memgraph/pkg/vector/sqlitevec"
)

var _ = Describe("Index", func() {
	newIndex := func() *sqlitevec.Index {
		index, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 3,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return index
	}

	testutils.DescribeIndexContract(func() vector.Index {
		return newIndex()
	})

	Describe("New", func() {
		It("requires a database path", func() {
			_, err := sqlitevec.New(sqlitevec.Config{Dimensions: 3}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("database path is required")))
		})

		It("requires dimensions", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: ":memory:"}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Add and Search", func() {
		var (
			index *sqlitevec.Index
			ctx   context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			index = newIndex()
		})

		AfterEach(func() {
			Expect(index.Close()).To(Succeed())
		})

		It("appends duplicate ids", func() {
			id := uuid.Must(uuid.NewV7())
			Expect(index.Add(ctx, id, []float32{1, 0, 0})).To(Succeed())
			Expect(index.Add(ctx, id, []float32{1, 0, 0})).To(Succeed())

			results, err := index.Search(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal(id))
			Expect(results[1].ID).To(Equal(id))
		})

		It("rejects zero-magnitude embeddings", func() {
			err := index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{0, 0, 0})
			Expect(err).To(MatchError(vector.ErrZeroVector))
		})

		It("scores every entry 0 for a zero query", func() {
			first := uuid.Must(uuid.NewV7())
			second := uuid.Must(uuid.NewV7())
			Expect(index.Add(ctx, first, []float32{1, 0, 0})).To(Succeed())
			Expect(index.Add(ctx, second, []float32{0, 1, 0})).To(Succeed())

			results, err := index.Search(ctx, []float32{0, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(Equal([]vector.Result{
				{ID: first, Score: 0},
				{ID: second, Score: 0},
			}))
		})
	})

	It("persists entries across reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "vectors.db")
		config := sqlitevec.Config{DBPath: dbPath, Dimensions: 3}

		index, err := sqlitevec.New(config, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		id := uuid.Must(uuid.NewV7())
		Expect(index.Add(ctx, id, []float32{0, 0, 1})).To(Succeed())
		Expect(index.Close()).To(Succeed())

		reopened, err := sqlitevec.New(config, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		results, err := reopened.Search(ctx, []float32{0, 0, 1}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal(id))
	})
})
