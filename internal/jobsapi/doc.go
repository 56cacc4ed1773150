// Package jobsapi is the HTTP client for the scoring backend.
//
// It lists jobs, polls a single job's status, fetches per-segment mood
// analysis, uploads audiobook files, and submits new scoring jobs. Every call
// is stateless; no retries happen here. Failures are returned as typed errors
// (NetworkError, HTTPError, NotFoundError, ValidationError, UploadError) that
// expose an ErrorKind so callers can choose between an inline message and a
// retry prompt.
package jobsapi
