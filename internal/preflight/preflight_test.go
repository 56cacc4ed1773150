package preflight

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookscore/internal/jobsapi"
	"bookscore/internal/testsupport"
)

type fakeLister struct {
	resp jobsapi.ListResponse
	err  error
}

func (f fakeLister) ListJobs(context.Context) (jobsapi.ListResponse, error) {
	return f.resp, f.err
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBackend(t *testing.T) {
	cases := []struct {
		name   string
		api    JobLister
		passed bool
		detail string
	}{
		{"ok", fakeLister{resp: jobsapi.ListResponse{Stats: jobsapi.Stats{Total: 3}}}, true, "3 jobs"},
		{"auth", fakeLister{err: &jobsapi.HTTPError{Op: "list jobs", StatusCode: http.StatusUnauthorized}}, false, "check api.token"},
		{"server", fakeLister{err: &jobsapi.HTTPError{Op: "list jobs", StatusCode: http.StatusBadGateway}}, false, "returned 502"},
		{"network", fakeLister{err: &jobsapi.NetworkError{Op: "list jobs", Err: errors.New("connection refused")}}, false, "unreachable"},
		{"timeout", fakeLister{err: context.DeadlineExceeded}, false, "timed out"},
		{"no client", nil, false, "no client"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckBackend(context.Background(), "http://backend.test", tc.api)
			if result.Passed != tc.passed {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tc.passed, result.Detail)
			}
			if !strings.Contains(result.Detail, tc.detail) {
				t.Fatalf("detail %q does not contain %q", result.Detail, tc.detail)
			}
		})
	}

	if result := CheckBackend(context.Background(), " ", fakeLister{}); result.Passed || !strings.Contains(result.Detail, "api.base_url") {
		t.Fatalf("expected missing base url failure, got %+v", result)
	}
}

func TestCheckCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.RecordJob(context.Background(), jobsapi.Job{JobID: "job-1", Status: jobsapi.StatusQueued}); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}

	result := CheckCache(context.Background(), cfg.CacheDBPath())
	if !result.Passed || !strings.Contains(result.Detail, "1 jobs") {
		t.Fatalf("unexpected cache result: %+v", result)
	}
}

func TestCheckCacheReportsUnopenable(t *testing.T) {
	dir := t.TempDir()
	result := CheckCache(context.Background(), dir)
	if result.Passed {
		t.Fatalf("a directory is not a cache database: %+v", result)
	}
}

func TestRunAllGatesOptionalChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Cache.Enabled = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, fakeLister{})
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if !byName["Job cache"].Skipped {
		t.Fatalf("disabled cache should be skipped: %+v", byName["Job cache"])
	}
	if !byName["Notifications"].Skipped {
		t.Fatalf("unconfigured notifications should be skipped: %+v", byName["Notifications"])
	}
	if Failed(results) {
		t.Fatalf("expected no failures, got %+v", results)
	}

	cfg.Notifications.NtfyTopic = "books"
	cfg.Notifications.JobCompleted = true
	cfg.Notifications.JobFailed = false
	if n := CheckNotifications(cfg); !n.Passed || n.Detail != "books (completed)" {
		t.Fatalf("unexpected notifications result: %+v", n)
	}
}
