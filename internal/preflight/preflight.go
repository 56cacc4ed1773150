package preflight

import (
	"context"

	"bookscore/internal/config"
	"bookscore/internal/jobsapi"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail"`
}

// JobLister is the slice of the backend client the backend check needs.
type JobLister interface {
	ListJobs(ctx context.Context) (jobsapi.ListResponse, error)
}

// RunAll executes every applicable check for cfg. api may be nil when no
// client could be built; the backend check then reports the config problem.
func RunAll(ctx context.Context, cfg *config.Config, api JobLister) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckBackend(ctx, cfg.API.BaseURL, api),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Cache.Enabled {
		results = append(results, CheckCache(ctx, cfg.CacheDBPath()))
	} else {
		results = append(results, Result{Name: "Job cache", Skipped: true, Detail: "Disabled"})
	}

	results = append(results, CheckNotifications(cfg))
	return results
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
