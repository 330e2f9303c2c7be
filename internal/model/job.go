package model

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// JobStatus is the state of an analysis job.
type JobStatus string

const (
	// JobProcessing means the crawl is pending or being retried.
	JobProcessing JobStatus = "processing"

	// JobDone means a report was produced. Terminal.
	JobDone JobStatus = "done"

	// JobFailed means the job gave up; Message says why. Terminal.
	JobFailed JobStatus = "failed"
)

// ErrJobFinished is returned when a transition is attempted on a job that
// already reached a terminal state.
var ErrJobFinished = errors.New("job already finished")

// Job is the status record of one analysis of one target URL.
//
// State machine:
//
//	processing --Complete--> done
//	processing --Fail------> failed
//	processing --Retry-----> processing
//
// Restart moves any job back to processing; it is used for forced refreshes.
type Job struct {
	// ID is derived from URL, so a URL always maps to the same job.
	ID string `json:"id"`

	// URL is the target as requested by the user.
	URL string `json:"url"`

	// Status is the current state.
	Status JobStatus `json:"status"`

	// Message is a user-visible explanation, set on failure.
	Message string `json:"message,omitempty"`

	// Report is set once the job is done.
	Report *PrivacyReport `json:"report,omitempty"`

	// Attempts counts backend fetch attempts, including retries.
	Attempts int `json:"attempts"`

	// CreatedAt is when the job was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the job last changed state.
	UpdatedAt time.Time `json:"updated_at"`

	// Target is the URL actually sent to the backend; it may differ from URL
	// after the HTTPS-only probe rewrote the scheme.
	Target string `json:"-"`

	// Payload is the backend capture for the current attempt.
	Payload *CrawlPayload `json:"-"`
}

// JobID returns the stable job identifier for a target URL.
// Surrounding whitespace and a trailing slash do not change the identifier.
func JobID(url string) string {
	normalized := strings.TrimSuffix(strings.TrimSpace(url), "/")
	sum := blake2b.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NewJob creates a processing job for the given URL.
func NewJob(url string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        JobID(url),
		URL:       url,
		Status:    JobProcessing,
		CreatedAt: now,
		UpdatedAt: now,
		Target:    url,
	}
}

// IsTerminal reports whether the job reached done or failed.
func (j *Job) IsTerminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

// Complete attaches the report and moves the job to done.
func (j *Job) Complete(report *PrivacyReport) error {
	if j.IsTerminal() {
		return ErrJobFinished
	}
	j.Status = JobDone
	j.Report = report
	j.Message = ""
	j.touch()
	return nil
}

// Fail records the reason and moves the job to failed.
func (j *Job) Fail(message string) error {
	if j.IsTerminal() {
		return ErrJobFinished
	}
	j.Status = JobFailed
	j.Message = message
	j.Payload = nil
	j.touch()
	return nil
}

// Retry keeps the job in processing and drops the previous attempt's payload.
func (j *Job) Retry() error {
	if j.IsTerminal() {
		return ErrJobFinished
	}
	j.Payload = nil
	j.touch()
	return nil
}

// Restart moves the job back to processing, discarding any previous result.
func (j *Job) Restart() {
	j.Status = JobProcessing
	j.Message = ""
	j.Report = nil
	j.Payload = nil
	j.Attempts = 0
	j.Target = j.URL
	j.touch()
}

func (j *Job) touch() {
	j.UpdatedAt = time.Now().UTC()
}
