package jobview

import (
	"testing"

	"bookscore/internal/jobsapi"
)

func TestIsTerminalByStatus(t *testing.T) {
	for _, status := range []string{"queued", "transcribing", "analyzing", "composing", "mixing", "Mixing"} {
		if IsTerminal(status) {
			t.Fatalf("%s should not be terminal", status)
		}
		if !ShowLiveIndicator(status) || !ProgressBarVisible(status) {
			t.Fatalf("%s should show live indicator and progress", status)
		}
	}
	for _, status := range []string{"completed", "failed", "Completed", " FAILED "} {
		if !IsTerminal(status) {
			t.Fatalf("%s should be terminal", status)
		}
		if ShowLiveIndicator(status) || ProgressBarVisible(status) {
			t.Fatalf("%s should hide live indicator and progress", status)
		}
	}
}

func TestDisplayStatusCapitalizesFirstCharacterOnly(t *testing.T) {
	cases := map[string]string{
		"completed":    "Completed",
		"transcribing": "Transcribing",
		"mIXING":       "MIXING",
		"":             "",
		"édition":      "Édition",
	}
	for in, want := range cases {
		if got := DisplayStatus(in); got != want {
			t.Fatalf("DisplayStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProcessingCount(t *testing.T) {
	stats := jobsapi.Stats{Total: 9, Queued: 1, Transcribing: 2, Analyzing: 1, Composing: 0, Mixing: 3, Completed: 1, Failed: 1}
	if got := ProcessingCount(stats); got != 6 {
		t.Fatalf("ProcessingCount = %d, want 6", got)
	}
	view := DeriveStats(stats)
	if view.Processing != 6 || view.Total != 9 || view.Queued != 1 || view.Completed != 1 || view.Failed != 1 {
		t.Fatalf("unexpected stats view: %+v", view)
	}
}

func TestMoodColorIsCaseInsensitive(t *testing.T) {
	lower := MoodColor("happy", 10)
	upper := MoodColor("HAPPY", 10)
	if lower != upper {
		t.Fatalf("expected identical colours, got %v and %v", lower, upper)
	}
	if got := lower.String(); got != "hsl(50, 100%, 65%)" {
		t.Fatalf("unexpected colour %s", got)
	}
}

func TestMoodColorFormula(t *testing.T) {
	got := MoodColor("sad", 5)
	want := HSL{H: 220, S: 65, L: 40}
	if got != want {
		t.Fatalf("MoodColor(sad, 5) = %+v, want %+v", got, want)
	}
	got = MoodColor("Sad", 1)
	if got.S != 53 || got.L != 32 {
		t.Fatalf("MoodColor(Sad, 1) = %+v", got)
	}
}

func TestMoodColorUnknownFallsBackToGray(t *testing.T) {
	for _, intensity := range []float64{1, 5, 10} {
		if got := MoodColor("foo", intensity); got != FallbackMoodColor {
			t.Fatalf("intensity %v: expected fallback gray, got %+v", intensity, got)
		}
	}
	if hex := FallbackMoodColor.Hex(); hex != "#999999" {
		t.Fatalf("unexpected fallback hex %s", hex)
	}
}

func TestHSLHex(t *testing.T) {
	cases := map[HSL]string{
		{H: 0, S: 100, L: 50}:   "#ff0000",
		{H: 120, S: 100, L: 50}: "#00ff00",
		{H: 240, S: 100, L: 50}: "#0000ff",
		{H: 0, S: 0, L: 100}:    "#ffffff",
		{H: 0, S: 0, L: 0}:      "#000000",
	}
	for color, want := range cases {
		if got := color.Hex(); got != want {
			t.Fatalf("%v.Hex() = %s, want %s", color, got, want)
		}
	}
}

func TestFilterJobsPreservesOrder(t *testing.T) {
	jobs := []jobsapi.Job{
		{JobID: "a", Status: "queued"},
		{JobID: "b", Status: "completed"},
		{JobID: "c", Status: "Queued"},
		{JobID: "d", Status: "failed"},
	}
	got := FilterJobs(jobs, FilterQueued)
	if len(got) != 2 || got[0].JobID != "a" || got[1].JobID != "c" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if all := FilterJobs(jobs, FilterAll); len(all) != 4 {
		t.Fatalf("expected all jobs, got %d", len(all))
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Fatalf("blank filter: %v %v", f, err)
	}
	if f, err := ParseFilter("Mixing"); err != nil || f != FilterMixing {
		t.Fatalf("mixing filter: %v %v", f, err)
	}
	if _, err := ParseFilter("failed"); err == nil {
		t.Fatal("failed is not a list filter tab")
	}
}

func TestProgressWidthClamps(t *testing.T) {
	cases := map[float64]int{-5: 0, 0: 0, 35: 35, 35.6: 36, 100: 100, 180: 100}
	for in, want := range cases {
		if got := ProgressWidth(in); got != want {
			t.Fatalf("ProgressWidth(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestDeriveRowsHidesProgressOnlyForCompleted(t *testing.T) {
	rows := DeriveRows([]jobsapi.Job{
		{JobID: "a", Status: "completed", Progress: 100, CreatedAt: "2024-03-09T12:00:00Z", Input: jobsapi.JobInput{FileName: "a.mp3"}},
		{JobID: "b", Status: "failed", Progress: 40},
	})
	if rows[0].ProgressVisible {
		t.Fatal("completed job must not show a progress bar")
	}
	if !rows[1].ProgressVisible || rows[1].ProgressWidth != 40 {
		t.Fatalf("unexpected failed row: %+v", rows[1])
	}
	if rows[0].FileName != "a.mp3" || rows[0].DisplayStatus != "Completed" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if len(rows[0].Created) != len("03/09/2024") {
		t.Fatalf("expected MM/DD/YYYY date, got %q", rows[0].Created)
	}
}

func TestDeriveDetail(t *testing.T) {
	message := "mixer crashed"
	job := jobsapi.Job{
		JobID:    "j1",
		Status:   "failed",
		Progress: 80,
		Input:    jobsapi.JobInput{FileName: "dune.mp3"},
		Metadata: &jobsapi.Metadata{Title: "Dune", Year: "1965", Genres: []string{"Sci-Fi"}},
		Error:    &message,
	}
	view := DeriveDetail(job)
	if view.DisplayStatus != "Failed" || !view.IsTerminal || view.ShowLiveIndicator || view.ProgressBarVisible {
		t.Fatalf("unexpected status fields: %+v", view)
	}
	if view.Error != "mixer crashed" {
		t.Fatalf("expected job error, got %q", view.Error)
	}
	if view.Book == nil || view.Book.Title != "Dune" || view.Book.Year != "1965" {
		t.Fatalf("unexpected book: %+v", view.Book)
	}
	if view.ResultsReady {
		t.Fatal("failed job has no results")
	}

	job.Status = "transcribing"
	job.Progress = 35
	job.Error = nil
	view = DeriveDetail(job)
	if !view.ProgressBarVisible || view.ProgressWidth != 35 || !view.ShowLiveIndicator {
		t.Fatalf("unexpected in-flight view: %+v", view)
	}
}

func TestTabSelectorSwitchesOnceOnCompletion(t *testing.T) {
	sel := NewTabSelector()
	if sel.Observe("mixing") != TabTranscription {
		t.Fatal("expected default tab while mixing")
	}
	if sel.Observe("completed") != TabResults {
		t.Fatal("expected automatic switch to results on completion")
	}
	sel.Choose(TabSegments)
	if sel.Observe("completed") != TabSegments {
		t.Fatal("manual choice must win after the automatic switch")
	}
}

func TestTabSelectorManualChoiceBeforeCompletionWins(t *testing.T) {
	sel := NewTabSelector()
	sel.Observe("analyzing")
	sel.Choose(TabSegments)
	if got := sel.Observe("completed"); got != TabSegments {
		t.Fatalf("manual choice overridden: %s", got)
	}
}

func TestTabSelectorOpensCompletedJobOnResults(t *testing.T) {
	sel := NewTabSelector()
	if got := sel.Observe("completed"); got != TabResults {
		t.Fatalf("expected results for an already completed job, got %s", got)
	}
}

func TestTranscriptAndTimeline(t *testing.T) {
	segments := []jobsapi.Segment{
		{SegmentID: "s1", Text: " It was night. ", Start: 0, End: 65, Mood: "Suspense", Intensity: 7},
		{SegmentID: "s2", Text: "", Start: 65, End: 70, Mood: "foo"},
		{SegmentID: "s3", Text: "Dawn.", Start: 3725, End: 3730, Mood: "hopeful", Intensity: 3},
	}
	lines := Transcript(segments)
	if len(lines) != 2 || lines[0].Text != "It was night." || lines[0].End != "1:05" || lines[1].Start != "1:02:05" {
		t.Fatalf("unexpected transcript: %+v", lines)
	}
	rows := SegmentTimeline(segments, 1)
	if len(rows) != 3 || !rows[1].Selected || rows[0].Selected {
		t.Fatalf("unexpected selection: %+v", rows)
	}
	if rows[1].Hex != "#999999" {
		t.Fatalf("unknown mood should render gray, got %s", rows[1].Hex)
	}
	if rows[0].Duration != 65 {
		t.Fatalf("expected duration derived from bounds, got %v", rows[0].Duration)
	}
}

func TestClampSegmentIndex(t *testing.T) {
	if ClampSegmentIndex(3, 0) != -1 || ClampSegmentIndex(-2, 4) != 0 || ClampSegmentIndex(9, 4) != 3 || ClampSegmentIndex(2, 4) != 2 {
		t.Fatal("unexpected clamp results")
	}
}
