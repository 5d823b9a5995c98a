package vector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/vector"
)

var _ = Describe("CosineSimilarity", func() {
	DescribeTable("scores",
		func(a, b []float32, want float64) {
			score, err := vector.CosineSimilarity(a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", want, 1e-6))
		},
		Entry("identical vectors", []float32{0.1, 0.9, 0.1}, []float32{0.1, 0.9, 0.1}, 1.0),
		Entry("scaled vectors", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0),
		Entry("orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0),
		Entry("opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1.0),
		Entry("45 degrees", []float32{1, 0}, []float32{1, 1}, 0.70710678),
		Entry("zero query", []float32{0, 0, 0}, []float32{1, 2, 3}, 0.0),
		Entry("zero stored", []float32{1, 2, 3}, []float32{0, 0, 0}, 0.0),
		Entry("both zero", []float32{0, 0}, []float32{0, 0}, 0.0),
	)

	It("scores identical unit vectors exactly 1", func() {
		score, err := vector.CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(Equal(float32(1)))
	})

	It("fails on mismatched lengths", func() {
		_, err := vector.CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})
})

var _ = Describe("CheckDimensions", func() {
	It("accepts any length when unset", func() {
		Expect(vector.CheckDimensions("add", 0, []float32{1, 2, 3, 4})).To(Succeed())
	})

	It("rejects empty vectors", func() {
		Expect(vector.CheckDimensions("add", 0, nil)).To(MatchError(vector.ErrEmptyVector))
	})

	It("rejects other lengths", func() {
		err := vector.CheckDimensions("search", 3, []float32{1, 2})
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		Expect(err.Error()).To(ContainSubstring("vector index: search"))
	})
})

var _ = Describe("Magnitude", func() {
	It("is the euclidean norm", func() {
		Expect(vector.Magnitude([]float32{3, 4})).To(BeNumerically("~", 5, 1e-9))
		Expect(vector.Magnitude([]float32{0, 0})).To(BeZero())
	})
})
