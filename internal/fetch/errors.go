package fetch

import (
	"errors"
	"fmt"
)

// Fetch errors.
var (
	// ErrFetchFailed is matched by every *FetchFailure.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidBackend is returned when the backend endpoint is not an
	// absolute http(s) URL.
	ErrInvalidBackend = errors.New("invalid backend endpoint")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyNotSOCKS5 is returned when the proxy answers but does not
	// speak SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when the proxy address cannot be reached.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrDNSUnavailable is returned when the DNS pre-check could not get an
	// answer. Callers treat it as "unknown", never as a verdict on the target.
	ErrDNSUnavailable = errors.New("dns pre-check unavailable")
)

// Failure reasons produced by this package. Reasons reported by the crawl
// backend itself are passed through verbatim.
const (
	ReasonInvalidURL         = "invalid url"
	ReasonInvalidDomain      = "invalid domain"
	ReasonMalformedReply     = "malformed backend response"
	ReasonBackendUnavailable = "backend unavailable"
	ReasonCancelled          = "cancelled"
)

// FetchFailure is a failed crawl attempt.
// Reason is what the user sees on the failed job.
type FetchFailure struct {
	// Reason is the backend's reason string, or one of the Reason constants.
	Reason string

	// StatusCode is the backend's HTTP status, 0 when no response was received.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (f *FetchFailure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("fetch failed (status %d): %s", f.StatusCode, f.Reason)
	}
	return "fetch failed: " + f.Reason
}

// Unwrap returns the underlying error.
func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// Is makes errors.Is(err, ErrFetchFailed) succeed.
func (f *FetchFailure) Is(target error) bool {
	return target == ErrFetchFailed
}

// ReasonOf extracts the user-visible reason from err.
// Errors that are not a *FetchFailure yield their message.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var failure *FetchFailure
	if errors.As(err, &failure) {
		return failure.Reason
	}
	return err.Error()
}
