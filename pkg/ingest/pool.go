package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/memgraph/pkg/memory"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the pool.
type Job struct {
	Memory *memory.Memory
}

// PoolConfig is the configuration options for the worker pool.
type PoolConfig struct {
	Service *Service

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool ingests memories asynchronously so that API callers do not wait on
// storage and indexing.
type Pool struct {
	service *Service
	queue   chan Job
	wg      sync.WaitGroup
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool and starts its workers.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("ingest pool requires a service")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		service: c.Service,
		queue:   make(chan Job, c.QueueSize),
		logger:  c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job. It returns false, dropping the job, when the queue
// is full or the pool is closed.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed", "id", job.Memory.ID)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "id", job.Memory.ID)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "id", job.Memory.ID)
		return false
	}
}

// Close stops accepting jobs and waits for queued jobs to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingest worker started", "worker_id", id)

	for job := range p.queue {
		if err := p.service.Ingest(context.Background(), job.Memory); err != nil {
			p.logger.Error("async ingest failed", "id", job.Memory.ID, "error", err)
		}
	}

	p.logger.Debug("ingest worker stopped", "worker_id", id)
}
