// Package memory provides an in-memory JobStore for development/testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/licensewatch/license-scanner/internal/scanner"
)

// JobStore keeps jobs and their results in process memory.
type JobStore struct {
	mu      sync.RWMutex
	jobs    map[string]scanner.Job
	results map[string][]scanner.ScanResult
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[string]scanner.Job),
		results: make(map[string][]scanner.ScanResult),
	}
}

// CreateJob stores a new job in queued status.
func (s *JobStore) CreateJob(_ context.Context, job scanner.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	s.jobs[job.ID] = job
	return nil
}

// UpdateJobStatus updates the status and counters for a job.
func (s *JobStore) UpdateJobStatus(
	_ context.Context,
	jobID string,
	status scanner.JobStatus,
	errText string,
	counters scanner.JobCounters,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	job.Status = status
	job.ErrorText = errText
	job.Counters = counters
	now := time.Now().UTC()
	if status == scanner.JobStatusRunning && job.Started == nil {
		job.Started = pointerTime(now)
	}
	if isTerminal(status) {
		job.Finished = pointerTime(now)
	}
	s.jobs[jobID] = job
	return nil
}

// SaveResults replaces the stored result list for a job.
func (s *JobStore) SaveResults(_ context.Context, jobID string, results []scanner.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scanner.ScanResult, len(results))
	copy(out, results)
	s.results[jobID] = out
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(_ context.Context, jobID string) (scanner.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return scanner.Job{}, errors.New("job not found")
	}
	return job, nil
}

// ListResults returns the recorded results for a job in input order.
func (s *JobStore) ListResults(_ context.Context, jobID string) ([]scanner.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := s.results[jobID]
	out := make([]scanner.ScanResult, len(results))
	copy(out, results)
	return out, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}

func isTerminal(status scanner.JobStatus) bool {
	switch status {
	case scanner.JobStatusSucceeded, scanner.JobStatusFailed:
		return true
	default:
		return false
	}
}
