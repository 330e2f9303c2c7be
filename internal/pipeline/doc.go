// Package pipeline drives analysis jobs from target URL to report.
//
// One attempt is a Pipeline of steps executed in order on a *model.Job:
//   - probe: DNS pre-check and HTTPS-only probe (first attempt only)
//   - fetch: ask the crawl backend for the payload
//   - analyze: build the privacy report and complete the job
//
// Runner owns the job state machine around the pipeline. It returns cached
// done jobs, classifies failed attempts as retryable or terminal, waits a
// backoff between attempts and persists the job after every transition.
//
// Design decision: Retries live in the Runner rather than inside the fetch
// step because the retry decision needs the attempt count and the retry
// budget, which are job-level state. Passing both explicitly into
// fetch.ClassifyFailure keeps the decision a pure function.
//
// BatchProcessor runs several targets concurrently with errgroup.
package pipeline
