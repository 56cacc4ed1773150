package testsupport

import (
	"testing"

	"bookscore/internal/config"
	"bookscore/internal/jobcache"
)

// MustOpenStore opens a jobcache.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobcache.Store {
	t.Helper()

	store, err := jobcache.Open(cfg)
	if err != nil {
		t.Fatalf("jobcache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
