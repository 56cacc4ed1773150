package store

import (
	"strings"

	"golang.org/x/text/cases"

	"bookscore/internal/jobview"
)

// Action is a state transition. Reduce must not modify its argument.
type Action interface {
	Reduce(State) State
}

// SetAudioFile records the chosen file, or clears it when File is nil.
type SetAudioFile struct {
	File *AudioFile
}

func (a SetAudioFile) Reduce(s State) State {
	if a.File == nil {
		s.Book.AudioFile = nil
		return s
	}
	file := *a.File
	s.Book.AudioFile = &file
	return s
}

// SetUpload records the result of a successful upload and moves to review.
type SetUpload struct {
	Upload UploadRef
}

func (a SetUpload) Reduce(s State) State {
	upload := a.Upload
	s.Book.Upload = &upload
	s.Book.Step = StepReview
	return s
}

// UpdateBookDetails changes the non-nil fields only.
type UpdateBookDetails struct {
	Title       *string
	Author      *string
	Year        *int
	Description *string
}

func (a UpdateBookDetails) Reduce(s State) State {
	if a.Title != nil {
		s.Book.Details.Title = *a.Title
	}
	if a.Author != nil {
		s.Book.Details.Author = *a.Author
	}
	if a.Year != nil {
		s.Book.Details.Year = *a.Year
	}
	if a.Description != nil {
		s.Book.Details.Description = *a.Description
	}
	return s
}

// AddGenre appends a tag. Blank tags and tags already present (ignoring
// case) leave the state unchanged.
type AddGenre struct {
	Genre string
}

func (a AddGenre) Reduce(s State) State {
	genre := strings.TrimSpace(a.Genre)
	if genre == "" || HasGenre(s.Book.Details.Genres, genre) {
		return s
	}
	genres := make([]string, 0, len(s.Book.Details.Genres)+1)
	genres = append(genres, s.Book.Details.Genres...)
	s.Book.Details.Genres = append(genres, genre)
	return s
}

// RemoveGenre drops a tag; removing an absent tag is a no-op.
type RemoveGenre struct {
	Genre string
}

func (a RemoveGenre) Reduce(s State) State {
	genre := strings.TrimSpace(a.Genre)
	if !HasGenre(s.Book.Details.Genres, genre) {
		return s
	}
	genres := make([]string, 0, len(s.Book.Details.Genres))
	for _, g := range s.Book.Details.Genres {
		if !sameGenre(g, genre) {
			genres = append(genres, g)
		}
	}
	s.Book.Details.Genres = genres
	return s
}

// HasGenre reports whether genres contains genre, ignoring case.
func HasGenre(genres []string, genre string) bool {
	for _, g := range genres {
		if sameGenre(g, genre) {
			return true
		}
	}
	return false
}

// sameGenre compares tags under Unicode case folding, so "Straße" and
// "STRASSE" name the same genre.
func sameGenre(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// SetStep moves the wizard to Step.
type SetStep struct {
	Step int
}

func (a SetStep) Reduce(s State) State {
	if a.Step != StepUpload && a.Step != StepReview {
		return s
	}
	s.Book.Step = a.Step
	return s
}

// ResetBook discards the draft. Year is the default publication year of the
// fresh draft; the Store fills it in when zero.
type ResetBook struct {
	Year int
}

func (a ResetBook) Reduce(s State) State {
	s.Book = initialBook(a.Year)
	return s
}

// SetFilter selects the job list filter.
type SetFilter struct {
	Filter jobview.Filter
}

func (a SetFilter) Reduce(s State) State {
	s.Jobs.Filter = a.Filter
	return s
}

// SetDetailTab selects the job detail tab.
type SetDetailTab struct {
	Tab jobview.Tab
}

func (a SetDetailTab) Reduce(s State) State {
	s.Jobs.DetailTab = a.Tab
	return s
}

// SelectSegment highlights a segment; -1 clears the selection.
type SelectSegment struct {
	Index int
}

func (a SelectSegment) Reduce(s State) State {
	if a.Index < 0 {
		a.Index = -1
	}
	s.Jobs.SelectedSegment = a.Index
	return s
}

// ObserveJob applies one refresh of the job being viewed: it moves to the
// tab the selector derived and keeps a highlighted segment within range.
type ObserveJob struct {
	Tab          jobview.Tab
	SegmentCount int
}

func (a ObserveJob) Reduce(s State) State {
	s.Jobs.DetailTab = a.Tab
	if s.Jobs.SelectedSegment >= 0 && a.SegmentCount > 0 {
		s.Jobs.SelectedSegment = jobview.ClampSegmentIndex(s.Jobs.SelectedSegment, a.SegmentCount)
	}
	return s
}

// SetDragActive mirrors the drag-and-drop hover flag.
type SetDragActive struct {
	Active bool
}

func (a SetDragActive) Reduce(s State) State {
	s.Jobs.DragActive = a.Active
	return s
}
