package ingest_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memgraph/pkg/ingest"
	"github.com/papercomputeco/memgraph/pkg/logger"
	"github.com/papercomputeco/memgraph/pkg/memory"
	"github.com/papercomputeco/memgraph/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/memgraph/pkg/utils/test"
	"github.com/papercomputeco/memgraph/pkg/vector/flat"
)

// newTestPool creates a pool backed by an in-memory driver and flat index.
// Callers should "pool.Close()" to drain enqueued jobs before asserting state.
func newTestPool(queueSize uint) (*ingest.Pool, *inmemory.Driver, *flat.Index) {
	driver := inmemory.NewDriver()
	index := flat.New(flat.Config{}, logger.Nop())

	pool, err := ingest.NewPool(&ingest.PoolConfig{
		Service: ingest.NewService(ingest.Config{
			Storage: driver,
			Index:   index,
			Logger:  logger.Nop(),
		}),
		QueueSize: queueSize,
		Logger:    logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	return pool, driver, index
}

var _ = Describe("Pool", func() {
	It("requires a service", func() {
		_, err := ingest.NewPool(&ingest.PoolConfig{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	It("ingests every enqueued memory before Close returns", func() {
		pool, driver, index := newTestPool(0)

		var memories []*memory.Memory
		for range 50 {
			m := testutils.NewSemantic("m", 1, 0)
			memories = append(memories, m)
			Expect(pool.Enqueue(ingest.Job{Memory: m})).To(BeTrue())
		}
		pool.Close()

		Expect(driver.Count()).To(Equal(50))
		Expect(index.Len()).To(Equal(50))

		got, ok, err := driver.GetMemory(context.Background(), memories[0].ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got.ID).To(Equal(memories[0].ID))
	})

	It("rejects jobs after Close", func() {
		pool, _, _ := newTestPool(0)
		pool.Close()

		Expect(pool.Enqueue(ingest.Job{Memory: testutils.NewSemantic("late")})).To(BeFalse())
	})

	It("tolerates a second Close", func() {
		pool, _, _ := newTestPool(0)
		pool.Close()
		Expect(pool.Close).NotTo(Panic())
	})

	It("keeps going after a failed job", func() {
		pool, driver, index := newTestPool(0)

		Expect(pool.Enqueue(ingest.Job{Memory: testutils.NewSemantic("3d", 1, 0, 0)})).To(BeTrue())
		pool.Close()

		pool, err := ingest.NewPool(&ingest.PoolConfig{
			Service: ingest.NewService(ingest.Config{
				Storage: driver,
				Index:   index,
				Logger:  logger.Nop(),
			}),
			NumWorkers: 1,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(ingest.Job{Memory: testutils.NewSemantic("2d", 1, 0)})).To(BeTrue())
		Expect(pool.Enqueue(ingest.Job{Memory: testutils.NewSemantic("3d again", 0, 1, 0)})).To(BeTrue())
		pool.Close()

		Expect(driver.Count()).To(Equal(3))
		Expect(index.Len()).To(Equal(2))
	})
})
