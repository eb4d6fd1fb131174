// Package worker implements the scan pipeline execution loop.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/licensewatch/license-scanner/internal/metrics"
	"github.com/licensewatch/license-scanner/internal/scanner"
)

// Config controls Worker behavior.
type Config struct {
	ArchivePrefix string
	Topic         string
}

// Worker consumes queue items and executes scan jobs.
type Worker struct {
	queue     scanner.Queue
	jobStore  scanner.JobStore
	detector  scanner.BatchScanner
	sink      scanner.ResultSink
	blobStore scanner.BlobStore
	publisher scanner.Publisher
	clock     scanner.Clock
	cfg       Config
	logger    *zap.Logger
}

// Option customizes a Worker.
type Option func(*Worker)

// WithResultSink adds a secondary result sink (e.g. Postgres).
func WithResultSink(sink scanner.ResultSink) Option {
	return func(w *Worker) { w.sink = sink }
}

// WithBlobStore enables archiving the JSON report of each finished job.
func WithBlobStore(store scanner.BlobStore) Option {
	return func(w *Worker) { w.blobStore = store }
}

// WithPublisher enables completion events.
func WithPublisher(pub scanner.Publisher) Option {
	return func(w *Worker) { w.publisher = pub }
}

// New constructs a Worker.
func New(
	queue scanner.Queue,
	jobStore scanner.JobStore,
	detector scanner.BatchScanner,
	clock scanner.Clock,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		queue:    queue,
		jobStore: jobStore,
		detector: detector,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued job", zap.String("job_id", item.JobID))
		w.processJob(ctx, item)
	}
}

func (w *Worker) processJob(ctx context.Context, item scanner.ScanJob) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	if err := w.jobStore.UpdateJobStatus(
		ctx, item.JobID, scanner.JobStatusRunning, "", scanner.JobCounters{},
	); err != nil {
		w.logger.Error("update job status failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}

	results := w.detector.Scan(ctx, item.Websites)
	counters := countOutcomes(results)

	if err := w.jobStore.SaveResults(ctx, item.JobID, results); err != nil {
		w.logger.Error("save results failed", zap.String("job_id", item.JobID), zap.Error(err))
	}
	if w.sink != nil {
		if err := w.sink.SaveResults(ctx, item.JobID, results); err != nil {
			w.logger.Error("result sink failed", zap.String("job_id", item.JobID), zap.Error(err))
		}
	}
	w.archiveReport(ctx, item.JobID, results)

	status, errText := deriveFinalStatus(results, counters)
	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, status, errText, counters); err != nil {
		w.logger.Error("final job status update failed", zap.String("job_id", item.JobID), zap.Error(err))
	}
	metrics.ObserveJob(string(status))

	w.publishCompletion(ctx, item, counters)
	w.logger.Info("job processed",
		zap.String("job_id", item.JobID),
		zap.String("status", string(status)),
		zap.Int("sites_succeeded", counters.SitesSucceeded),
		zap.Int("sites_failed", counters.SitesFailed),
	)
}

// countOutcomes derives job counters and records per-site metrics.
func countOutcomes(results []scanner.ScanResult) scanner.JobCounters {
	counters := scanner.JobCounters{}
	for _, result := range results {
		switch {
		case result.Error != "":
			counters.SitesFailed++
			metrics.ObserveSite(result.Website, metrics.OutcomeError)
		case result.InvalidURL:
			counters.SitesSucceeded++
			metrics.ObserveSite(result.Website, metrics.OutcomeInvalidURL)
		case result.BlockedByRobotsTxt:
			counters.SitesSucceeded++
			metrics.ObserveSite(result.Website, metrics.OutcomeRobotsBlocked)
		case result.LicenseType == "":
			counters.SitesSucceeded++
			metrics.ObserveSite(result.Website, metrics.OutcomeEmpty)
		default:
			counters.SitesSucceeded++
			metrics.ObserveSite(result.Website, metrics.OutcomeOK)
			metrics.ObserveLicenseType(result.LicenseType)
		}
	}
	return counters
}

func deriveFinalStatus(results []scanner.ScanResult, counters scanner.JobCounters) (scanner.JobStatus, string) {
	if len(results) > 0 && counters.SitesSucceeded == 0 {
		var errs []string
		for _, result := range results {
			if result.Error != "" {
				errs = append(errs, result.Error)
			}
		}
		return scanner.JobStatusFailed, strings.Join(errs, "; ")
	}
	return scanner.JobStatusSucceeded, ""
}

func (w *Worker) archiveReport(ctx context.Context, jobID string, results []scanner.ScanResult) {
	if w.blobStore == nil {
		return
	}
	payload, err := json.Marshal(results)
	if err != nil {
		w.logger.Error("marshal report failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	path := w.buildReportPath(jobID)
	uri, err := w.blobStore.PutObject(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		w.logger.Error("archive report failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	w.logger.Debug("report archived", zap.String("job_id", jobID), zap.String("uri", uri))
}

func (w *Worker) buildReportPath(jobID string) string {
	prefix := strings.Trim(w.cfg.ArchivePrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s.json", jobID)
	}
	return fmt.Sprintf("%s/%s.json", prefix, jobID)
}

func (w *Worker) publishCompletion(ctx context.Context, item scanner.ScanJob, counters scanner.JobCounters) {
	if w.publisher == nil || w.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"job_id":       item.JobID,
		"websites":     item.Websites,
		"succeeded":    counters.SitesSucceeded,
		"failed":       counters.SitesFailed,
		"completed_at": w.clock.Now().Format(time.RFC3339),
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, payload); err != nil {
		w.logger.Warn("publish completion failed", zap.String("job_id", item.JobID), zap.Error(err))
	}
}
