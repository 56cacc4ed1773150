package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"bookscore/internal/config"
	"bookscore/internal/jobcache"
	"bookscore/internal/jobsapi"
)

const backendCheckTimeout = 10 * time.Second

// CheckBackend lists jobs once to confirm the backend answers and accepts
// the configured token.
func CheckBackend(ctx context.Context, baseURL string, api JobLister) Result {
	const name = "Backend"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing api.base_url"}
	}
	if api == nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (no client)", base)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()

	resp, err := api.ListJobs(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", base, summarizeBackendError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d jobs)", base, resp.Stats.Total)}
}

func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var httpErr *jobsapi.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed, check api.token"
		default:
			return fmt.Sprintf("returned %d", httpErr.StatusCode)
		}
	}
	var netErr *jobsapi.NetworkError
	if errors.As(err, &netErr) {
		return fmt.Sprintf("unreachable: %v", netErr.Err)
	}
	return err.Error()
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCache opens the cache database at path and reads its counts.
func CheckCache(ctx context.Context, path string) Result {
	const name = "Job cache"

	store, err := jobcache.OpenPath(path)
	if err != nil {
		if errors.Is(err, jobcache.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (schema mismatch, delete the file to rebuild)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d jobs, %d segments)", path, stats.Jobs, stats.Segments)}
}

// CheckNotifications reports whether ntfy is configured and which events it
// will receive.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"

	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Skipped: true, Detail: "Not configured"}
	}
	var events []string
	if cfg.Notifications.JobCompleted {
		events = append(events, "completed")
	}
	if cfg.Notifications.JobFailed {
		events = append(events, "failed")
	}
	if len(events) == 0 {
		return Result{Name: name, Skipped: true, Detail: topic + " (all events disabled)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", topic, strings.Join(events, ", "))}
}
