package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAllInstancesExhausted is reported when no attempt could be made at all.
var ErrAllInstancesExhausted = errors.New("all instances exhausted")

// HTTPStatusError is returned by provider clients for non-2xx responses.
type HTTPStatusError struct {
	Provider   Provider
	URL        string
	Status     string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s request to %s failed: HTTP %d %s",
		e.Provider, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func NewHTTPStatusError(provider Provider, url string, statusCode int, status string) *HTTPStatusError {
	return &HTTPStatusError{
		Provider:   provider,
		URL:        url,
		StatusCode: statusCode,
		Status:     status,
	}
}

// StatusCodeOf returns the HTTP status carried by err, or 0 if there is none.
func StatusCodeOf(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	return StatusCodeOf(err) == http.StatusNotFound
}

// ExhaustedError is returned when every attempt against both providers failed.
type ExhaustedError struct {
	Err      error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all instances exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func NewExhaustedError(attempts int, lastErr error) *ExhaustedError {
	if lastErr == nil {
		lastErr = ErrAllInstancesExhausted
	}
	return &ExhaustedError{
		Attempts: attempts,
		Err:      lastErr,
	}
}

// IsExhausted reports whether err came out of a fully exhausted failover run.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}

var (
	ErrInvalidDownload      = errors.New("download needs a valid video id")
	ErrDownloadInProgress   = errors.New("download already in progress")
	ErrNoDownloadableStream = errors.New("no downloadable stream")
)
