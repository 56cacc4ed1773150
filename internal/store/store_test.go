package store

import (
	"testing"
	"time"

	"bookscore/internal/jobview"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
}

func TestInitialStateDefaults(t *testing.T) {
	s := New(WithClock(fixedClock()))
	state := s.GetState()
	if state.Book.Details.Year != 2025 {
		t.Fatalf("expected current year default, got %d", state.Book.Details.Year)
	}
	if state.Book.Step != StepUpload || state.Book.AudioFile != nil {
		t.Fatalf("unexpected book slice: %+v", state.Book)
	}
	if state.Jobs.Filter != jobview.FilterAll || state.Jobs.DetailTab != jobview.TabTranscription || state.Jobs.SelectedSegment != -1 {
		t.Fatalf("unexpected jobs slice: %+v", state.Jobs)
	}
}

func TestAddGenreDeduplicates(t *testing.T) {
	s := New()
	s.Dispatch(AddGenre{Genre: "Mystery"})
	s.Dispatch(AddGenre{Genre: "Mystery"})
	s.Dispatch(AddGenre{Genre: " mystery "})
	s.Dispatch(AddGenre{Genre: "   "})
	s.Dispatch(AddGenre{Genre: "Thriller"})

	genres := s.GetState().Book.Details.Genres
	if len(genres) != 2 || genres[0] != "Mystery" || genres[1] != "Thriller" {
		t.Fatalf("unexpected genres: %v", genres)
	}
}

func TestGenreDedupeFoldsUnicodeCase(t *testing.T) {
	s := New()
	s.Dispatch(AddGenre{Genre: "Straße"})
	s.Dispatch(AddGenre{Genre: "STRASSE"})
	if got := s.GetState().Book.Details.Genres; len(got) != 1 || got[0] != "Straße" {
		t.Fatalf("expected folded duplicate to be ignored, got %v", got)
	}
	s.Dispatch(RemoveGenre{Genre: "strasse"})
	if got := s.GetState().Book.Details.Genres; len(got) != 0 {
		t.Fatalf("expected folded removal, got %v", got)
	}
}

func TestObserveJobNotifiesAndClamps(t *testing.T) {
	s := New()
	s.Dispatch(SelectSegment{Index: 9})

	var tabs []jobview.Tab
	unsubscribe := s.Subscribe(func(state State) { tabs = append(tabs, state.Jobs.DetailTab) })
	defer unsubscribe()

	s.Dispatch(ObserveJob{Tab: jobview.TabTranscription})
	s.Dispatch(ObserveJob{Tab: jobview.TabResults, SegmentCount: 4})

	if len(tabs) != 2 || tabs[1] != jobview.TabResults {
		t.Fatalf("expected a notification per observation, got %v", tabs)
	}
	if got := s.GetState().Jobs.SelectedSegment; got != 3 {
		t.Fatalf("expected selection clamped to 3, got %d", got)
	}
}

func TestRemoveGenre(t *testing.T) {
	s := New()
	s.Dispatch(AddGenre{Genre: "Mystery"})
	s.Dispatch(AddGenre{Genre: "Fantasy"})
	before := s.GetState().Book.Details.Genres

	s.Dispatch(RemoveGenre{Genre: "Horror"})
	if got := s.GetState().Book.Details.Genres; len(got) != 2 {
		t.Fatalf("removing an absent genre changed state: %v", got)
	}
	s.Dispatch(RemoveGenre{Genre: "Mystery"})
	if got := s.GetState().Book.Details.Genres; len(got) != 1 || got[0] != "Fantasy" {
		t.Fatalf("unexpected genres after removal: %v", got)
	}
	if len(before) != 2 || before[0] != "Mystery" {
		t.Fatalf("earlier snapshot was mutated: %v", before)
	}
}

func TestReducersDoNotMutateInput(t *testing.T) {
	base := InitialState(time.Now())
	base.Book.Details.Genres = []string{"Mystery"}
	next := AddGenre{Genre: "Thriller"}.Reduce(base)
	if len(base.Book.Details.Genres) != 1 {
		t.Fatalf("input state mutated: %v", base.Book.Details.Genres)
	}
	if len(next.Book.Details.Genres) != 2 {
		t.Fatalf("unexpected output: %v", next.Book.Details.Genres)
	}
}

func TestUpdateBookDetailsPartial(t *testing.T) {
	s := New(WithClock(fixedClock()))
	title := "Dune"
	s.Dispatch(UpdateBookDetails{Title: &title})
	author := "Frank Herbert"
	year := 1965
	s.Dispatch(UpdateBookDetails{Author: &author, Year: &year})

	details := s.GetState().Book.Details
	if details.Title != "Dune" || details.Author != "Frank Herbert" || details.Year != 1965 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestResetBookRestoresDraftAndKeepsJobs(t *testing.T) {
	s := New(WithClock(fixedClock()))
	s.Dispatch(SetAudioFile{File: &AudioFile{Name: "dune.mp3", Size: 10, Type: "audio/mpeg"}})
	s.Dispatch(SetUpload{Upload: UploadRef{FileURL: "u", FileName: "n", FileType: "t"}})
	s.Dispatch(AddGenre{Genre: "Sci-Fi"})
	s.Dispatch(SetFilter{Filter: jobview.FilterQueued})
	s.Dispatch(ResetBook{})

	state := s.GetState()
	if state.Book.AudioFile != nil || state.Book.Upload != nil || len(state.Book.Details.Genres) != 0 {
		t.Fatalf("draft not cleared: %+v", state.Book)
	}
	if state.Book.Step != StepUpload || state.Book.Details.Year != 2025 {
		t.Fatalf("unexpected reset draft: %+v", state.Book)
	}
	if state.Jobs.Filter != jobview.FilterQueued {
		t.Fatalf("reset must not touch the jobs slice: %+v", state.Jobs)
	}
}

func TestSetUploadAdvancesStep(t *testing.T) {
	s := New()
	s.Dispatch(SetUpload{Upload: UploadRef{FileURL: "u", FileName: "n", FileType: "t"}})
	state := s.GetState()
	if state.Book.Step != StepReview || state.Book.Upload.FileURL != "u" {
		t.Fatalf("unexpected state: %+v", state.Book)
	}
	s.Dispatch(SetStep{Step: 7})
	if s.GetState().Book.Step != StepReview {
		t.Fatal("invalid step should be ignored")
	}
}

func TestJobsSliceActions(t *testing.T) {
	s := New()
	s.Dispatch(SetDetailTab{Tab: jobview.TabSegments})
	s.Dispatch(SelectSegment{Index: 3})
	s.Dispatch(SetDragActive{Active: true})
	jobs := s.GetState().Jobs
	if jobs.DetailTab != jobview.TabSegments || jobs.SelectedSegment != 3 || !jobs.DragActive {
		t.Fatalf("unexpected jobs slice: %+v", jobs)
	}
	s.Dispatch(SelectSegment{Index: -9})
	if s.GetState().Jobs.SelectedSegment != -1 {
		t.Fatal("negative index should clear the selection")
	}
}

func TestSubscribeNotifiesAndUnsubscribes(t *testing.T) {
	s := New()
	var seen []int64
	unsubscribe := s.Subscribe(func(state State) {
		seen = append(seen, state.Version)
		if state.Version == 1 {
			// Re-entrant dispatch from a subscriber is allowed.
			s.Dispatch(SetDragActive{Active: true})
		}
	})
	s.Dispatch(SetFilter{Filter: jobview.FilterMixing})
	unsubscribe()
	unsubscribe()
	s.Dispatch(SetFilter{Filter: jobview.FilterAll})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected notifications: %v", seen)
	}
	if s.GetState().Version != 3 {
		t.Fatalf("expected three dispatches, got version %d", s.GetState().Version)
	}
}
