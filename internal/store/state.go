package store

import (
	"time"

	"bookscore/internal/jobview"
)

// Wizard steps.
const (
	StepUpload = 1
	StepReview = 2
)

// AudioFile describes the chosen file. The bytes never enter the store.
type AudioFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// UploadRef is the file triple returned by a successful upload.
type UploadRef struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// BookDetails is the editable metadata draft.
type BookDetails struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
}

// BookState is the submission draft slice.
type BookState struct {
	AudioFile *AudioFile  `json:"audioFile,omitempty"`
	Upload    *UploadRef  `json:"upload,omitempty"`
	Details   BookDetails `json:"bookDetails"`
	Step      int         `json:"step"`
}

// JobsState is the job views slice.
type JobsState struct {
	Filter          jobview.Filter `json:"filter"`
	DetailTab       jobview.Tab    `json:"detailTab"`
	SelectedSegment int            `json:"selectedSegment"`
	DragActive      bool           `json:"dragActive"`
}

// State is the whole client-local state.
type State struct {
	Book BookState `json:"book"`
	Jobs JobsState `json:"jobs"`
	// Version increases by one on every dispatch.
	Version int64 `json:"version"`
}

// InitialState returns the empty state for a session started at now.
func InitialState(now time.Time) State {
	return State{
		Book: initialBook(now.Year()),
		Jobs: JobsState{
			Filter:          jobview.FilterAll,
			DetailTab:       jobview.DefaultTab,
			SelectedSegment: -1,
		},
	}
}

func initialBook(year int) BookState {
	return BookState{
		Details: BookDetails{Year: year, Genres: []string{}},
		Step:    StepUpload,
	}
}

func (s State) clone() State {
	out := s
	out.Book.Details.Genres = append([]string{}, s.Book.Details.Genres...)
	if s.Book.AudioFile != nil {
		file := *s.Book.AudioFile
		out.Book.AudioFile = &file
	}
	if s.Book.Upload != nil {
		upload := *s.Book.Upload
		out.Book.Upload = &upload
	}
	return out
}
