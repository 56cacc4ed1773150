package jobsapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds reported by ErrorKind.
const (
	KindNetwork    = "network"
	KindHTTP       = "http"
	KindNotFound   = "not_found"
	KindValidation = "validation"
	KindUpload     = "upload"
)

// ErrorClassifier is implemented by every error this package returns.
type ErrorClassifier interface {
	ErrorKind() string
}

// NetworkError reports a request that never produced a response, including
// timeouts and cancelled contexts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) ErrorKind() string { return KindNetwork }

// HTTPError reports a non-2xx response, or a 2xx response whose envelope
// carried success=false.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: backend returned %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, body)
}

func (e *HTTPError) ErrorKind() string { return KindHTTP }

// NotFoundError reports a job the backend does not know about.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.JobID)
}

func (e *NotFoundError) ErrorKind() string { return KindNotFound }

// ValidationError reports a request rejected before it was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("validation failed: %s is required", e.Field)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) ErrorKind() string { return KindValidation }

// UploadError wraps any failure of a multipart upload.
type UploadError struct {
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.FileName, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) ErrorKind() string { return KindUpload }

// Kind returns the classification of err, or "" when err did not come from
// this package.
func Kind(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

// Retryable reports whether repeating the same call may succeed: network
// failures and 5xx responses qualify, and so do upload failures caused by
// either.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
