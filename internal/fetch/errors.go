package fetch

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Transient reports whether the status is worth retrying. Server errors and
// rate limiting are; other client errors mean the request itself is wrong.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Transient classifies an error from GetJSON. Network failures, truncated
// bodies and retryable status codes qualify; malformed responses and
// non-retryable status codes do not.
func Transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
