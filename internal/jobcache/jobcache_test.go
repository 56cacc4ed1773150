package jobcache_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"bookscore/internal/jobcache"
	"bookscore/internal/jobsapi"
	"bookscore/internal/testsupport"
)

func sampleJob(id, status string, progress float64) jobsapi.Job {
	return jobsapi.Job{
		JobID:     id,
		Status:    status,
		Progress:  progress,
		CreatedAt: "2025-03-01T10:00:00Z",
		UpdatedAt: "2025-03-01T10:05:00Z",
		Input:     jobsapi.JobInput{FileName: "dune.mp3", FileType: "audio/mpeg", StylePreset: "cinematic", MixWithAudiobook: true},
		Metadata:  &jobsapi.Metadata{Title: "Dune", Author: "Frank Herbert", Year: "1965", Genres: []string{"Sci-Fi", "Epic"}},
	}
}

func TestRecordJobUpsertsSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.RecordJob(ctx, sampleJob("job-1", "queued", 0)); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}
	if err := store.RecordJob(ctx, sampleJob("job-1", "transcribing", 35)); err != nil {
		t.Fatalf("RecordJob update: %v", err)
	}

	cached, err := store.Job(ctx, "job-1")
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cached job")
	}
	if cached.Job.Status != "transcribing" || cached.Job.Progress != 35 {
		t.Fatalf("unexpected snapshot: %+v", cached.Job)
	}
	if cached.Job.Metadata == nil || len(cached.Job.Metadata.Genres) != 2 || cached.Job.Metadata.Year.String() != "1965" {
		t.Fatalf("metadata lost in round trip: %+v", cached.Job.Metadata)
	}
	if cached.ObservedAt.IsZero() {
		t.Fatal("expected observed timestamp")
	}

	jobs, err := store.Jobs(ctx)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}

func TestJobMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	cached, err := store.Job(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if cached != nil {
		t.Fatalf("expected nil, got %+v", cached)
	}
}

func TestRecordJobRequiresID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.RecordJob(context.Background(), jobsapi.Job{Status: "queued"}); err == nil {
		t.Fatal("expected error for empty job id")
	}
}

func TestCompletedSegmentsRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, ok, err := store.CompletedSegments(ctx, "job-1"); err != nil || ok {
		t.Fatalf("expected miss before store, ok=%v err=%v", ok, err)
	}

	segments := []jobsapi.Segment{
		{JobID: "job-1", SegmentID: "s1", Text: "A beginning is a very delicate time.", Start: 0, End: 4.5, Mood: "Mysterious", Intensity: 6,
			MusicalSuggestions: jobsapi.MusicalSuggestions{Tempo: "slow", Techniques: []string{"drone"}}},
		{JobID: "job-1", SegmentID: "s2", Text: "Fear is the mind-killer.", Start: 4.5, End: 9, Mood: "tense", Intensity: 8},
	}
	if err := store.StoreCompletedSegments(ctx, "job-1", segments); err != nil {
		t.Fatalf("StoreCompletedSegments: %v", err)
	}

	got, ok, err := store.CompletedSegments(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0].SegmentID != "s1" || got[1].SegmentID != "s2" {
		t.Fatalf("unexpected segments: %+v", got)
	}
	if got[0].MusicalSuggestions.Tempo != "slow" || len(got[0].MusicalSuggestions.Techniques) != 1 {
		t.Fatalf("suggestions lost: %+v", got[0].MusicalSuggestions)
	}

	// A second store replaces rather than appends.
	if err := store.StoreCompletedSegments(ctx, "job-1", segments[:1]); err != nil {
		t.Fatalf("StoreCompletedSegments replace: %v", err)
	}
	got, _, _ = store.CompletedSegments(ctx, "job-1")
	if len(got) != 1 {
		t.Fatalf("expected replacement, got %d segments", len(got))
	}
}

func TestStatsClearAndPrune(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, job := range []jobsapi.Job{
		sampleJob("a", "completed", 100),
		sampleJob("b", "completed", 100),
		sampleJob("c", "failed", 40),
	} {
		if err := store.RecordJob(ctx, job); err != nil {
			t.Fatalf("RecordJob: %v", err)
		}
	}
	if err := store.StoreCompletedSegments(ctx, "a", []jobsapi.Segment{{SegmentID: "1"}, {SegmentID: "2"}}); err != nil {
		t.Fatalf("StoreCompletedSegments: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Jobs != 3 || stats.JobsByStatus["completed"] != 2 || stats.JobsByStatus["failed"] != 1 {
		t.Fatalf("unexpected job stats: %+v", stats)
	}
	if stats.SegmentedJobs != 1 || stats.Segments != 2 {
		t.Fatalf("unexpected segment stats: %+v", stats)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing pruned, got %d", removed)
	}
	removed, err = store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 pruned, got %d", removed)
	}
	if _, ok, _ := store.CompletedSegments(ctx, "a"); ok {
		t.Fatal("expected segments pruned with their job")
	}

	if err := store.RecordJob(ctx, sampleJob("d", "queued", 0)); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, _ = store.Stats(ctx)
	if stats.Jobs != 0 || stats.Segments != 0 {
		t.Fatalf("expected empty cache, got %+v", stats)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.CacheDBPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := jobcache.Open(cfg); !errors.Is(err, jobcache.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := jobcache.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.RecordJob(context.Background(), sampleJob("keep", "completed", 100)); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}
	_ = first.Close()

	second := testsupport.MustOpenStore(t, cfg)
	cached, err := second.Job(context.Background(), "keep")
	if err != nil || cached == nil {
		t.Fatalf("expected persisted job, got %v err=%v", cached, err)
	}
}
