package main

import (
	"errors"
	"fmt"
	"net/http"

	"bookscore/internal/jobsapi"
	"bookscore/internal/wizard"
)

// describeError turns a command error into the line shown to the user,
// adding a retry hint for failures that may go away on their own.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *jobsapi.HTTPError
	var transition *wizard.TransitionError
	var msg string
	switch {
	case errors.As(err, &transition):
		msg = err.Error()
	case jobsapi.Kind(err) == jobsapi.KindNotFound:
		msg = err.Error()
	case jobsapi.Kind(err) == jobsapi.KindUpload:
		msg = fmt.Sprintf("upload failed: %v", err)
	case jobsapi.Kind(err) == jobsapi.KindNetwork:
		msg = fmt.Sprintf("cannot reach the scoring backend (check api.base_url): %v", err)
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized:
		msg = fmt.Sprintf("backend rejected the credentials (check api.token): %v", err)
	default:
		msg = err.Error()
	}
	if jobsapi.Retryable(err) {
		msg += "\nThe request may succeed if retried; run the command again."
	}
	return msg
}
