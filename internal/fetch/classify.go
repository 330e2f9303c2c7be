package fetch

import "strings"

// Decision is the outcome of classifying a fetch failure.
type Decision int

const (
	// DecisionRetry leaves the job processing and schedules another attempt.
	DecisionRetry Decision = iota

	// DecisionFail moves the job to failed with the reason as its message.
	DecisionFail
)

// String returns a human-readable representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionRetry:
		return "retry"
	case DecisionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// terminalReasons are lower-case fragments of failure reasons that no retry
// can fix. They cover the crawl backend's Chromium network errors as well
// as the reasons produced by this package.
var terminalReasons = []string{
	"not found",
	"connection refused",
	"no such host",
	ReasonInvalidDomain,
	ReasonInvalidURL,
	"net::err_name_not_resolved",
	"net::err_connection_refused",
	"net::err_address_unreachable",
	"net::err_cert_",
	"net::err_ssl_protocol_error",
	"net::err_invalid_url",
	"net::err_unsafe_port",
}

// IsTerminalReason reports whether reason names a failure class that will
// not go away on retry. Matching is case-insensitive on substrings.
func IsTerminalReason(reason string) bool {
	r := strings.ToLower(reason)
	for _, fragment := range terminalReasons {
		if strings.Contains(r, fragment) {
			return true
		}
	}
	return false
}

// ClassifyFailure decides what happens to a job after a failed attempt.
//
// retries is the number of retries already performed (attempts minus one)
// and maxRetries the budget. The job fails when the budget is exhausted or
// the reason is terminal; otherwise it is retried.
func ClassifyFailure(reason string, retries, maxRetries int) Decision {
	if retries >= maxRetries || IsTerminalReason(reason) {
		return DecisionFail
	}
	return DecisionRetry
}
