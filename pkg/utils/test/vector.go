package testutils

import (
	"context"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/vector"
)

// MockIndex is a vector.Index that returns canned results and records adds.
type MockIndex struct {
	mu      sync.Mutex
	added   []uuid.UUID
	deleted []uuid.UUID
	results []vector.Result

	// AddErr and SearchErr, when set, are returned by Add and Search.
	AddErr    error
	SearchErr error
}

func NewMockIndex(results ...vector.Result) *MockIndex {
	return &MockIndex{results: results}
}

func (m *MockIndex) Add(_ context.Context, id uuid.UUID, _ []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.added = append(m.added, id)
	return nil
}

func (m *MockIndex) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockIndex) Search(_ context.Context, _ []float32, k int) ([]vector.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if len(m.results) < k {
		return m.results, nil
	}
	return m.results[:k], nil
}

// Added returns the ids passed to Add so far.
func (m *MockIndex) Added() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID{}, m.added...)
}

// Deleted returns the ids passed to Delete so far.
func (m *MockIndex) Deleted() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID{}, m.deleted...)
}

func (m *MockIndex) Close() error {
	return nil
}

// DescribeIndexContract registers the search behaviour shared by every
// vector.Index backend. newIndex must return an empty index of 3 dimensions.
func DescribeIndexContract(newIndex func() vector.Index) {
	Describe("vector.Index contract", func() {
		var (
			index vector.Index
			ctx   context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			index = newIndex()
		})

		AfterEach(func() {
			if index != nil {
				Expect(index.Close()).To(Succeed())
			}
		})

		It("returns nothing from an empty index", func() {
			results, err := index.Search(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("scores an identical vector 1 and an orthogonal one 0", func() {
			same := uuid.Must(uuid.NewV7())
			orthogonal := uuid.Must(uuid.NewV7())
			Expect(index.Add(ctx, same, []float32{1, 0, 0})).To(Succeed())
			Expect(index.Add(ctx, orthogonal, []float32{0, 1, 0})).To(Succeed())

			results, err := index.Search(ctx, []float32{1, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal(same))
			Expect(results[0].Score).To(BeNumerically("~", 1, 1e-5))
			Expect(results[1].ID).To(Equal(orthogonal))
			Expect(results[1].Score).To(BeNumerically("~", 0, 1e-5))
		})

		It("returns at most k results in non-increasing score order", func() {
			vectors := [][]float32{
				{1, 0, 0},
				{0.9, 0.1, 0},
				{0.5, 0.5, 0},
				{0, 1, 0},
				{0, 0, 1},
				{0.7, 0, 0.3},
			}
			for _, v := range vectors {
				Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), v)).To(Succeed())
			}

			results, err := index.Search(ctx, []float32{1, 0, 0}, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			for i := 1; i < len(results); i++ {
				Expect(results[i].Score).To(BeNumerically("<=", results[i-1].Score))
			}
		})

		It("returns every entry when k exceeds the index size", func() {
			Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0, 0})).To(Succeed())
			Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{0, 1, 0})).To(Succeed())

			results, err := index.Search(ctx, []float32{1, 0, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("deletes an id so it is no longer returned", func() {
			gone := uuid.Must(uuid.NewV7())
			kept := uuid.Must(uuid.NewV7())
			Expect(index.Add(ctx, gone, []float32{1, 0, 0})).To(Succeed())
			Expect(index.Add(ctx, kept, []float32{0.9, 0.1, 0})).To(Succeed())

			Expect(index.Delete(ctx, gone)).To(Succeed())

			results, err := index.Search(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal(kept))
		})

		It("ignores deletes of unknown ids", func() {
			Expect(index.Delete(ctx, uuid.Must(uuid.NewV7()))).To(Succeed())
		})

		It("rejects a query of the wrong dimensionality", func() {
			Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0, 0})).To(Succeed())

			_, err := index.Search(ctx, []float32{1, 0}, 5)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("rejects an embedding of the wrong dimensionality", func() {
			Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0, 0})).To(Succeed())

			err := index.Add(ctx, uuid.Must(uuid.NewV7()), []float32{1, 0, 0, 0})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("supports concurrent adds and searches", func() {
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(2)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					v := []float32{float32(i + 1), 1, 0}
					Expect(index.Add(ctx, uuid.Must(uuid.NewV7()), v)).To(Succeed())
				}()
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := index.Search(ctx, []float32{1, 1, 0}, 3)
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			results, err := index.Search(ctx, []float32{1, 1, 0}, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(20))
		})
	})
}
