package errs

import (
	"errors"
	"fmt"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
)

type Category string

const (
	CategoryConfig   Category = "CONFIG"   // manifest validation failures
	CategoryAPI      Category = "API"      // remote metadata service failures
	CategoryNetwork  Category = "NETWORK"  // transfer failures
	CategoryChecksum Category = "CHECKSUM" // hash mismatch after a full write
	CategoryIO       Category = "IO"       // local filesystem failures
	CategoryPackage  Category = "PACKAGE"  // archive construction failures
)

// ErrInvalidConfig is the sentinel wrapped by all manifest validation errors.
var ErrInvalidConfig = errors.New("invalid config")

// NewConfigError wraps a validation message so callers can match on ErrInvalidConfig.
func NewConfigError(format string, v ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
}

// APIError is a non-404, non-2xx response from a metadata endpoint.
// Not-found is a normal absent result and never produces an APIError.
type APIError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api request failed (status %d): %s: %v", e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("api request failed (status %d): %s", e.StatusCode, e.URL)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether the error is a 429 from the API.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return As(err, &apiErr) && apiErr.StatusCode == 429
}

// DownloadError is a single failed download attempt.
type DownloadError struct {
	Err        error
	Category   Category
	Resource   string // filename or URL being transferred
	StatusCode int    // HTTP status when Category is NETWORK, else 0
	Retryable  bool
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (status %d): %v", e.Category, e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Resource, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

func NewNetworkError(err error, resource string, statusCode int) *DownloadError {
	return &DownloadError{
		Err:        err,
		Category:   CategoryNetwork,
		Resource:   resource,
		StatusCode: statusCode,
		Retryable:  true,
	}
}

func NewChecksumError(resource, expected, actual string) *DownloadError {
	return &DownloadError{
		Err:       fmt.Errorf("sha1 mismatch: expected %s, got %s", expected, actual),
		Category:  CategoryChecksum,
		Resource:  resource,
		Retryable: true,
	}
}

// Filesystem failures consume retry budget like any other attempt failure:
// transient conditions (contended files, NFS hiccups) may clear between
// attempts.
func NewIOError(err error, resource string) *DownloadError {
	return &DownloadError{
		Err:       err,
		Category:  CategoryIO,
		Resource:  resource,
		Retryable: true,
	}
}

// IsRetryable reports whether a failed attempt should consume retry budget
// rather than fail the task outright.
func IsRetryable(err error) bool {
	var dlErr *DownloadError
	if As(err, &dlErr) {
		return dlErr.Retryable
	}
	// Unclassified errors (timeouts, resets) get the benefit of the doubt.
	return true
}
