package main

import (
	"strings"
	"testing"

	"bookscore/internal/jobsapi"
	"bookscore/internal/jobview"
)

func TestRenderProgressBarClamps(t *testing.T) {
	if got := renderProgressBar(-5); !strings.HasSuffix(got, "  0%") || strings.Contains(got, "█") {
		t.Fatalf("negative width should render empty bar, got %q", got)
	}
	if got := renderProgressBar(150); !strings.HasSuffix(got, "100%") || strings.Contains(got, "░") {
		t.Fatalf("width above 100 should render full bar, got %q", got)
	}
	if got := renderProgressBar(50); strings.Count(got, "█") != progressSlots/2 {
		t.Fatalf("half bar expected, got %q", got)
	}
}

func TestRenderJobListHidesProgressForCompletedJobs(t *testing.T) {
	resp := jobsapi.ListResponse{
		Jobs: []jobsapi.Job{
			{JobID: "a", Status: "composing", Progress: 80, Input: jobsapi.JobInput{FileName: "one.mp3"}},
			{JobID: "b", Status: "completed", Progress: 100, Input: jobsapi.JobInput{FileName: "two.mp3"}},
		},
		Stats: jobsapi.Stats{Total: 2, Composing: 1, Completed: 1},
	}
	out := renderJobList(resp, jobview.FilterAll, false)
	if strings.Count(out, "█") == 0 {
		t.Fatalf("expected a progress bar for the in-flight job:\n%s", out)
	}
	if strings.Contains(out, "100%") {
		t.Fatalf("completed job should not show a progress bar:\n%s", out)
	}

	filtered := renderJobList(resp, jobview.FilterMixing, false)
	if !strings.Contains(filtered, "No mixing jobs.") || !strings.Contains(filtered, "[Mixing]") {
		t.Fatalf("unexpected filtered output:\n%s", filtered)
	}
}

func TestRenderResultsTab(t *testing.T) {
	pending := renderResultsTab(jobview.DetailView{Status: "mixing"})
	if len(pending) != 1 || !strings.Contains(pending[0], "once the job completes") {
		t.Fatalf("unexpected pending results: %v", pending)
	}
	failed := renderResultsTab(jobview.DetailView{Status: "failed"})
	if !strings.Contains(failed[0], "failed") {
		t.Fatalf("unexpected failed results: %v", failed)
	}
}

func TestMoodSwatchWithoutColour(t *testing.T) {
	got := moodSwatch(jobview.SegmentRow{Mood: "", Color: "hsl(0, 0%, 60%)"}, false)
	if got != "unknown (hsl(0, 0%, 60%))" {
		t.Fatalf("unexpected swatch: %q", got)
	}
	if selectedMarker(false, false) != "" || selectedMarker(true, false) != ">" {
		t.Fatal("unexpected selection marker")
	}
}
