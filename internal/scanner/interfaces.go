package scanner

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves a page body with the configured identity and timeout.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
	SetUserAgent(ua string)
	UserAgent() string
}

// RobotsPolicy decides whether the scanner may crawl a site. Implementations
// fail open: if the robots.txt verdict cannot be computed, crawling is allowed.
type RobotsPolicy interface {
	Allowed(ctx context.Context, baseURL string) bool
}

// Extractor harvests license evidence from fetched HTML.
type Extractor interface {
	// ExtractFooterLinks parses content and returns the first license-bearing
	// footer anchor plus the set of policy-relevant footer links, resolved
	// against baseURL. An error means the content is not parseable HTML.
	ExtractFooterLinks(content []byte, baseURL string) (PageData, error)
	// AggregateContent fetches each link and joins the license-relevant text
	// found on those pages. Individual link failures are skipped.
	AggregateContent(ctx context.Context, links StringSet) string
}

// Classifier maps license evidence to labels.
type Classifier interface {
	// DetermineCCLicense returns a Creative Commons label for the given URL
	// and text, or UnknownLicense.
	DetermineCCLicense(rawURL, text string) string
	// ExtractLicenseMentions returns the set of license family names
	// mentioned anywhere in text.
	ExtractLicenseMentions(text string) StringSet
}

// BatchScanner processes a batch of sites into one result per input.
type BatchScanner interface {
	Scan(ctx context.Context, sites []string) []ScanResult
}

// JobStore persists scan jobs and their results.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errText string, counters JobCounters) error
	SaveResults(ctx context.Context, jobID string, results []ScanResult) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	ListResults(ctx context.Context, jobID string) ([]ScanResult, error)
}

// ResultSink receives the finished result list for a job. Secondary sinks
// (e.g. relational storage) implement this alongside the JobStore.
type ResultSink interface {
	SaveResults(ctx context.Context, jobID string, results []ScanResult) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for scan jobs.
type Queue interface {
	Enqueue(ctx context.Context, job ScanJob) error
	Dequeue(ctx context.Context) (ScanJob, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
