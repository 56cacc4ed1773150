// Package stubserver is an in-memory stand-in for the scoring backend.
//
// It serves the same routes the jobsapi client calls (job list, status,
// segments, upload and create) so the CLI and the end-to-end tests can run
// without the real workflow engine. Jobs walk through the status pipeline
// either on a fixed step timer or when a test calls Advance.
package stubserver
