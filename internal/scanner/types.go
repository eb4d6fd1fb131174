// Package scanner defines core types shared across subsystems and the
// per-site license detection pipeline.
package scanner

import "time"

// UnknownLicense is the label recorded when no classification signal fires.
const UnknownLicense = "Unknown"

// ScanResult is the record produced for each input website. It is created at
// the start of per-site processing and populated incrementally; once the site
// reaches a terminal state the record is never mutated again.
type ScanResult struct {
	Website            string    `json:"website"`
	InvalidURL         bool      `json:"invalidUrl"`
	BlockedByRobotsTxt bool      `json:"blockedByRobotsTxt"`
	LicenseLink        string    `json:"licenseLink,omitempty"`
	LicenseType        string    `json:"licenseType,omitempty"`
	RelevantLinks      StringSet `json:"relevantLinks"`
	LicenseMentions    StringSet `json:"licenseMentions"`
	Content            string    `json:"content,omitempty"`
	Error              string    `json:"error,omitempty"`
}

// PageData carries the evidence harvested from a primary page's footer.
type PageData struct {
	LicenseLink   string
	LicenseText   string
	RelevantLinks StringSet
}

// JobStatus represents the lifecycle state of a scan job.
type JobStatus string

// Job status values persisted in the job store.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents the metadata persisted for each submitted scan request.
type Job struct {
	ID        string      `json:"id"`
	Status    JobStatus   `json:"status"`
	Submitted time.Time   `json:"submitted_at"`
	Started   *time.Time  `json:"started_at,omitempty"`
	Finished  *time.Time  `json:"finished_at,omitempty"`
	ErrorText string      `json:"error_text,omitempty"`
	Websites  []string    `json:"websites"`
	Counters  JobCounters `json:"counters"`
}

// JobCounters tracks per-job site outcomes.
type JobCounters struct {
	SitesSucceeded int `json:"sites_succeeded"`
	SitesFailed    int `json:"sites_failed"`
}

// ScanJob wraps a job ready to run.
type ScanJob struct {
	JobID     string
	Websites  []string
	Submitted int64
}

// JobResult is returned by the API result endpoint.
type JobResult struct {
	Job     Job          `json:"job"`
	Results []ScanResult `json:"results"`
}
