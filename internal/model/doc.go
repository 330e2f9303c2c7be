// Package model defines the core data structures used throughout privacyscan.
//
// This package contains the following main types:
//   - CrawlPayload: The raw capture of one page produced by the crawl backend
//   - Cookie, Request: Records inside a payload, with opaque attributes kept verbatim
//   - PrivacyReport: The classified result of analysing one payload
//   - Job: The status record (processing, done, failed) that wraps a report
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The privacy engine, the fetch orchestrator, the database and the
// report writers all need these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
