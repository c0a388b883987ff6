package source

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned by a Pager once the source has no further pages
// (or the configured page cap has been reached).
var ErrEndOfStream = errors.New("end of stream")

// RetryExhaustedError reports a transient source failure that survived the
// full retry budget. The caller may skip-and-continue or abort.
type RetryExhaustedError struct {
	Endpoint string
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts for %s: %v", e.Attempts, e.Endpoint, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// SourceRejectedError reports a permanent source-side rejection (a 4xx other
// than rate limiting, or a robots.txt disallow). Never retried.
type SourceRejectedError struct {
	Endpoint   string
	StatusCode int
	Reason     string
}

func (e *SourceRejectedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("source rejected %s: %s", e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("source rejected %s: status %d", e.Endpoint, e.StatusCode)
}

// transientStatus reports whether an HTTP status is worth retrying.
// Rate-limit responses (429) count as transient; other 4xx do not.
func transientStatus(code int) bool {
	return code == 429 || code >= 500
}
