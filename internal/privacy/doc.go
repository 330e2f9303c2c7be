// Package privacy implements the privacy report engine.
//
// The engine turns one crawl payload into a model.PrivacyReport. It is a pure
// function of its input: no network access, no storage, no shared state.
//
// The stages are:
//   - Domain resolution: the page's registrable domain is computed once from
//     the payload's final URL and reused by every classifier
//   - Cookie classification: first-party versus third-party by cookie domain
//   - Request classification: third-party requests and insecure first-party requests
//   - Referrer policy: meta tag, CSP directive and Referrer-Policy header,
//     resolved by precedence and rated against a PolicyTable
//   - HSTS: parsing of the Strict-Transport-Security header
//
// Analyzer assembles the results into the final report.
//
// Classification anomalies (a cookie or request whose host cannot be parsed)
// are absorbed locally by excluding the record. Only a payload whose final URL
// is unusable aborts the analysis, with a *MalformedPayloadError.
package privacy
