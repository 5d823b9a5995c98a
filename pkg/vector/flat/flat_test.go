package flat_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/logger"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
	"github.com/papercomputeco/memgraph/pkg/vector"
	"github.com/papercomputeco/memgraph/pkg/vector/flat"
)

var _ = Describe("Index", func() {
	testutils.DescribeIndexContract(func() vector.Index {
		return flat.New(flat.Config{Dimensions: 3}, logger.Nop())
	})

	var (
		index *flat.Index
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		index = flat.New(flat.Config{}, logger.Nop())
	})

	It("adopts the dimensionality of the first vector", func() {
		Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0})).To(Succeed())

		err := index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0, 0})
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))

		var indexErr *vector.Error
		Expect(err).To(BeAssignableToTypeOf(indexErr))
	})

	It("rejects empty vectors", func() {
		err := index.Add(ctx, uuid.Must(uuid.NewV7()), nil)
		Expect(err).To(MatchError(vector.ErrEmptyVector))
	})

	It("keeps duplicate ids as separate entries", func() {
		id := uuid.Must(uuid.NewV7())
		Expect(index.Add(ctx, id, []float32{1, 0, 0})).To(Succeed())
		Expect(index.Add(ctx, id, []float32{0, 1, 0})).To(Succeed())

		Expect(index.Len()).To(Equal(2))

		results, err := index.Search(ctx, []float32{1, 1, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal(id))
		Expect(results[1].ID).To(Equal(id))
	})

	It("drops every duplicate of an id on Delete", func() {
		id := uuid.Must(uuid.NewV7())
		other := uuid.Must(uuid.NewV7())
		Expect(index.Add(ctx, id, []float32{1, 0, 0})).To(Succeed())
		Expect(index.Add(ctx, other, []float32{0, 1, 0})).To(Succeed())
		Expect(index.Add(ctx, id, []float32{0, 0, 1})).To(Succeed())

		Expect(index.Delete(ctx, id)).To(Succeed())
		Expect(index.Len()).To(Equal(1))
	})

	It("breaks score ties by insertion order", func() {
		first := uuid.Must(uuid.NewV7())
		second := uuid.Must(uuid.NewV7())
		third := uuid.Must(uuid.NewV7())
		Expect(index.Add(ctx, first, []float32{1, 0, 0})).To(Succeed())
		Expect(index.Add(ctx, second, []float32{2, 0, 0})).To(Succeed())
		Expect(index.Add(ctx, third, []float32{3, 0, 0})).To(Succeed())

		results, err := index.Search(ctx, []float32{1, 0, 0}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]vector.Result{
			{ID: first, Score: 1},
			{ID: second, Score: 1},
			{ID: third, Score: 1},
		}))
	})

	It("scores stored zero vectors 0", func() {
		zero := uuid.Must(uuid.NewV7())
		Expect(index.Add(ctx, zero, []float32{0, 0, 0})).To(Succeed())

		results, err := index.Search(ctx, []float32{1, 0, 0}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(Equal([]vector.Result{{ID: zero, Score: 0}}))
	})

	It("returns nothing for a non-positive k", func() {
		Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0, 0})).To(Succeed())

		results, err := index.Search(ctx, []float32{1, 0, 0}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("copies embeddings on add", func() {
		id := uuid.Must(uuid.NewV7())
		embedding := []float32{1, 0, 0}
		Expect(index.Add(ctx, id, embedding)).To(Succeed())

		embedding[0], embedding[1] = 0, 1

		results, err := index.Search(ctx, []float32{1, 0, 0}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Score).To(Equal(float32(1)))
	})
})
