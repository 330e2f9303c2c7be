package privacy

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is matched by every *MalformedPayloadError.
var ErrMalformedPayload = errors.New("malformed payload")

// MalformedPayloadError indicates that no report can be produced from a
// payload because its final URL is unusable.
type MalformedPayloadError struct {
	// FinalURL is the offending value.
	FinalURL string

	// Reason describes what is wrong with it.
	Reason string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: final_url %q: %s: %v", e.FinalURL, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed payload: final_url %q: %s", e.FinalURL, e.Reason)
}

// Unwrap returns the underlying parse error.
func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedPayload) succeed.
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}
