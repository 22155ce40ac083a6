package discovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/freytube/freytube/internal/core/domain"
)

// DiscoveryError wraps a failed directory fetch with context. These never
// leave the package boundary as return values, they are only logged.
type DiscoveryError struct {
	Err        error
	Provider   domain.Provider
	URL        string
	Operation  string
	StatusCode int
	Latency    time.Duration
}

func (e *DiscoveryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("discovery %s failed for %s (%s, status: %d, latency: %v): %v",
			e.Operation, e.Provider, e.URL, e.StatusCode, e.Latency, e.Err)
	}
	return fmt.Sprintf("discovery %s failed for %s (%s, latency: %v): %v",
		e.Operation, e.Provider, e.URL, e.Latency, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

func NewDiscoveryError(provider domain.Provider, url, operation string, statusCode int, latency time.Duration, err error) *DiscoveryError {
	return &DiscoveryError{
		Provider:   provider,
		URL:        url,
		Operation:  operation,
		StatusCode: statusCode,
		Latency:    latency,
		Err:        err,
	}
}

// ParseError indicates a directory response could not be understood
type ParseError struct {
	Err    error
	Format string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s directory: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NetworkError indicates a network-level failure
type NetworkError struct {
	Err error
	URL string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsParseFailure separates "the directory is broken" from "the directory is unreachable" in logs
func IsParseFailure(err error) bool {
	var parseError *ParseError
	return errors.As(err, &parseError)
}
