package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/licensewatch/license-scanner/internal/metrics"
	"github.com/licensewatch/license-scanner/internal/queue/memory"
	"github.com/licensewatch/license-scanner/internal/scanner"
	memstore "github.com/licensewatch/license-scanner/internal/store/memory"
	"github.com/licensewatch/license-scanner/internal/worker"
)

type echoScanner struct{}

func (echoScanner) Scan(_ context.Context, sites []string) []scanner.ScanResult {
	out := make([]scanner.ScanResult, len(sites))
	for i, site := range sites {
		out[i] = scanner.ScanResult{Website: site}
	}
	return out
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Unix(0, 0).UTC() }

func TestDispatcher_ProcessesEnqueuedJobs(t *testing.T) {
	metrics.Init()

	q := memory.NewQueue(8)
	defer q.Close()
	store := memstore.NewJobStore()

	d := New(q, 2, func() *worker.Worker {
		return worker.New(q, store, echoScanner{}, fixedClock{}, worker.Config{}, nil)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	jobIDs := []string{"j1", "j2", "j3"}
	for _, id := range jobIDs {
		require.NoError(t, store.CreateJob(ctx, scanner.Job{ID: id, Status: scanner.JobStatusQueued}))
		require.NoError(t, d.Enqueue(ctx, scanner.ScanJob{JobID: id, Websites: []string{"https://example.com"}}))
	}

	require.Eventually(t, func() bool {
		for _, id := range jobIDs {
			job, err := store.GetJob(ctx, id)
			if err != nil || job.Status != scanner.JobStatusSucceeded {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDispatcher_WaitReturnsAfterCancel(t *testing.T) {
	metrics.Init()

	q := memory.NewQueue(1)
	defer q.Close()
	store := memstore.NewJobStore()

	d := New(q, 3, func() *worker.Worker {
		return worker.New(q, store, echoScanner{}, fixedClock{}, worker.Config{}, nil)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher workers did not stop")
	}
}

func TestDispatcher_MinimumOneWorker(t *testing.T) {
	q := memory.NewQueue(1)
	defer q.Close()

	d := New(q, 0, func() *worker.Worker {
		return worker.New(q, memstore.NewJobStore(), echoScanner{}, fixedClock{}, worker.Config{}, nil)
	}, nil)
	require.Len(t, d.workers, 1)
}
