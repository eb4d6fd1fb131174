// Package dispatcher fans scan jobs out to a pool of workers.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/licensewatch/license-scanner/internal/scanner"
	"github.com/licensewatch/license-scanner/internal/worker"
)

// Dispatcher owns the worker pool for a queue.
type Dispatcher struct {
	queue   scanner.Queue
	workers []*worker.Worker
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// New builds a Dispatcher running count copies of the given worker factory.
func New(queue scanner.Queue, count int, factory func() *worker.Worker, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if count < 1 {
		count = 1
	}
	workers := make([]*worker.Worker, 0, count)
	for i := 0; i < count; i++ {
		workers = append(workers, factory())
	}
	return &Dispatcher{queue: queue, workers: workers, logger: logger}
}

// Start launches the worker goroutines. It does not block.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("starting workers", zap.Int("count", len(d.workers)))
	for i, w := range d.workers {
		d.wg.Add(1)
		go func(idx int, w *worker.Worker) {
			defer d.wg.Done()
			d.logger.Debug("worker started", zap.Int("worker", idx))
			w.Run(ctx)
			d.logger.Debug("worker stopped", zap.Int("worker", idx))
		}(i, w)
	}
}

// Enqueue submits a job for processing.
func (d *Dispatcher) Enqueue(ctx context.Context, job scanner.ScanJob) error {
	return d.queue.Enqueue(ctx, job)
}

// Wait blocks until all workers have exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
