package main

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"bookscore/internal/jobsapi"
)

func TestDescribeError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		contains  string
		retryHint bool
	}{
		{"network", &jobsapi.NetworkError{Op: "list jobs", Err: errors.New("connection refused")}, "cannot reach the scoring backend", true},
		{"unauthorized", &jobsapi.HTTPError{Op: "list jobs", StatusCode: http.StatusUnauthorized}, "check api.token", false},
		{"server", &jobsapi.HTTPError{Op: "job status", StatusCode: http.StatusBadGateway}, "job status", true},
		{"not found", &jobsapi.NotFoundError{JobID: "abc"}, "job abc not found", false},
		{"upload", &jobsapi.UploadError{FileName: "book.mp3", Err: errors.New("boom")}, "upload failed", false},
		{"plain", errors.New("something else"), "something else", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := describeError(tc.err)
			if !strings.Contains(got, tc.contains) {
				t.Fatalf("describeError(%v) = %q, want it to contain %q", tc.err, got, tc.contains)
			}
			if hint := strings.Contains(got, "may succeed if retried"); hint != tc.retryHint {
				t.Fatalf("retry hint = %v, want %v (%q)", hint, tc.retryHint, got)
			}
		})
	}
	if describeError(nil) != "" {
		t.Fatal("nil error should describe as empty")
	}
}
