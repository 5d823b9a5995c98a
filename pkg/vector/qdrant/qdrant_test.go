package qdrant_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/logger"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
	"github.com/papercomputeco/memgraph/pkg/vector"
	"github.com/papercomputeco/memgraph/pkg/vector/qdrant"
)

// qdrantHost returns the Qdrant host from environment or skips the test.
func qdrantHost() string {
	host := os.Getenv("MEMGRAPH_TEST_QDRANT_HOST")
	if host == "" {
		Skip("MEMGRAPH_TEST_QDRANT_HOST not set, skipping Qdrant tests")
	}
	return host
}

var _ = Describe("Index", func() {
	newIndex := func(exact bool) *qdrant.Index {
		index, err := qdrant.New(context.Background(), qdrant.Config{
			Host:       qdrantHost(),
			Collection: "memgraph_test_" + uuid.NewString(),
			Dimensions: 3,
			Exact:      exact,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return index
	}

	Context("exact search", func() {
		testutils.DescribeIndexContract(func() vector.Index {
			return newIndex(true)
		})
	})

	It("requires dimensions", func() {
		_, err := qdrant.New(context.Background(), qdrant.Config{}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("dimensions")))
	})

	It("replaces the point of a re-added id", func() {
		ctx := context.Background()
		index := newIndex(false)
		defer index.Close()

		id := uuid.Must(uuid.NewV7())
		Expect(index.Add(ctx, id, []float32{1, 0, 0})).To(Succeed())
		Expect(index.Add(ctx, id, []float32{0, 1, 0})).To(Succeed())

		results, err := index.Search(ctx, []float32{0, 1, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Score).To(BeNumerically("~", 1, 1e-5))
	})
})
