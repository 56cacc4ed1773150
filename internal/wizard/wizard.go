package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"bookscore/internal/jobsapi"
	"bookscore/internal/logging"
	"bookscore/internal/store"
)

// State is a wizard stage.
type State int

const (
	AwaitingFile State = iota
	FileChosen
	Uploading
	Uploaded
	SubmittingJob
	Submitted
)

func (s State) String() string {
	switch s {
	case AwaitingFile:
		return "awaiting_file"
	case FileChosen:
		return "file_chosen"
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case SubmittingJob:
		return "submitting_job"
	case Submitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrLocked is returned by metadata edits before the upload has succeeded.
	ErrLocked = errors.New("book details can be edited only after the upload succeeds")
	// ErrCleared is returned by an upload or submission discarded by Clear.
	ErrCleared = errors.New("wizard was cleared while a request was in flight")
)

// TransitionError reports an operation that is not valid in the current state.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s is not allowed while %s", e.Op, e.State)
}

func (e *TransitionError) ErrorKind() string { return "validation" }

// API is the part of the backend client the wizard uses.
type API interface {
	UploadFile(ctx context.Context, r io.Reader, fileName, fileType string) (jobsapi.UploadedFile, error)
	CreateJob(ctx context.Context, req jobsapi.CreateJobRequest) (jobsapi.CreateJobResponse, error)
}

// Options sets the job parameters that are not part of the book draft.
type Options struct {
	StylePreset      string
	MixWithAudiobook bool
	Logger           *slog.Logger
}

// Wizard is safe for concurrent use; network calls run without holding its lock.
type Wizard struct {
	api    API
	store  *store.Store
	opts   Options
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	file       FileHandle
	generation int
	result     *jobsapi.CreateJobResponse
}

// New returns a wizard in AwaitingFile. The draft in st is reset.
func New(api API, st *store.Store, opts Options) *Wizard {
	if strings.TrimSpace(opts.StylePreset) == "" {
		opts.StylePreset = "cinematic"
	}
	w := &Wizard{
		api:    api,
		store:  st,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "wizard"),
	}
	st.Dispatch(store.ResetBook{})
	return w
}

// State returns the current stage.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Result returns the job creation acknowledgement once Submitted.
func (w *Wizard) Result() (jobsapi.CreateJobResponse, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return jobsapi.CreateJobResponse{}, false
	}
	return *w.result, true
}

// ChooseFile selects the file to upload, replacing an earlier choice.
func (w *Wizard) ChooseFile(file FileHandle) error {
	if file == nil {
		return &jobsapi.ValidationError{Field: "file"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != AwaitingFile && w.state != FileChosen {
		return &TransitionError{Op: "choose file", State: w.state}
	}
	w.file = file
	w.state = FileChosen
	w.store.Dispatch(store.SetAudioFile{File: &store.AudioFile{Name: file.Name(), Size: file.Size(), Type: file.Type()}})
	w.store.Dispatch(store.SetDragActive{Active: false})
	return nil
}

// Clear discards the file and every draft field, returning to AwaitingFile.
// An upload still in flight is discarded when it returns.
func (w *Wizard) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Submitted {
		return &TransitionError{Op: "clear", State: w.state}
	}
	w.resetLocked()
	return nil
}

func (w *Wizard) resetLocked() {
	w.file = nil
	w.state = AwaitingFile
	w.generation++
	w.store.Dispatch(store.ResetBook{})
}

// Upload sends the chosen file. On failure the wizard returns to
// AwaitingFile and the UploadError is returned.
func (w *Wizard) Upload(ctx context.Context) (jobsapi.UploadedFile, error) {
	w.mu.Lock()
	if w.state != FileChosen {
		state := w.state
		w.mu.Unlock()
		return jobsapi.UploadedFile{}, &TransitionError{Op: "upload", State: state}
	}
	w.state = Uploading
	file := w.file
	generation := w.generation
	w.mu.Unlock()

	uploaded, err := w.upload(ctx, file)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.generation != generation {
		return jobsapi.UploadedFile{}, ErrCleared
	}
	if err != nil {
		w.logger.Warn("upload failed", logging.String("file", file.Name()), logging.Error(err))
		w.resetLocked()
		return jobsapi.UploadedFile{}, err
	}
	w.state = Uploaded
	w.store.Dispatch(store.SetUpload{Upload: store.UploadRef{
		FileURL:  uploaded.FileURL,
		FileName: uploaded.FileName,
		FileType: uploaded.FileType,
	}})
	w.logger.Info("file uploaded",
		logging.String("file", file.Name()),
		logging.String("file_url", uploaded.FileURL),
	)
	return uploaded, nil
}

func (w *Wizard) upload(ctx context.Context, file FileHandle) (jobsapi.UploadedFile, error) {
	rc, err := file.Open()
	if err != nil {
		return jobsapi.UploadedFile{}, &jobsapi.UploadError{FileName: file.Name(), Err: err}
	}
	defer rc.Close()
	return w.api.UploadFile(ctx, rc, file.Name(), file.Type())
}

func (w *Wizard) edit(action store.Action) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Uploaded {
		return ErrLocked
	}
	w.store.Dispatch(action)
	return nil
}

// SetTitle edits the draft title.
func (w *Wizard) SetTitle(title string) error {
	return w.edit(store.UpdateBookDetails{Title: &title})
}

// SetAuthor edits the draft author.
func (w *Wizard) SetAuthor(author string) error {
	return w.edit(store.UpdateBookDetails{Author: &author})
}

// SetYear edits the draft publication year.
func (w *Wizard) SetYear(year int) error {
	if year <= 0 {
		return &jobsapi.ValidationError{Field: "year", Message: "must be positive"}
	}
	return w.edit(store.UpdateBookDetails{Year: &year})
}

// SetDescription edits the draft description.
func (w *Wizard) SetDescription(description string) error {
	return w.edit(store.UpdateBookDetails{Description: &description})
}

// AddGenre adds a tag; blank and duplicate tags are ignored.
func (w *Wizard) AddGenre(genre string) error {
	return w.edit(store.AddGenre{Genre: genre})
}

// RemoveGenre removes a tag if present.
func (w *Wizard) RemoveGenre(genre string) error {
	return w.edit(store.RemoveGenre{Genre: genre})
}

// SetDragActive mirrors the drag-and-drop hover flag.
func (w *Wizard) SetDragActive(active bool) {
	w.store.Dispatch(store.SetDragActive{Active: active})
}

// Request builds the job creation body from the current draft.
func (w *Wizard) Request() (jobsapi.CreateJobRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requestLocked()
}

func (w *Wizard) requestLocked() (jobsapi.CreateJobRequest, error) {
	book := w.store.GetState().Book
	if w.state != Uploaded || book.Upload == nil {
		return jobsapi.CreateJobRequest{}, &jobsapi.ValidationError{Field: "fileUrl", Message: "upload the file before submitting"}
	}
	return jobsapi.CreateJobRequest{
		FileURL:          book.Upload.FileURL,
		FileName:         book.Upload.FileName,
		FileType:         book.Upload.FileType,
		Title:            strings.TrimSpace(book.Details.Title),
		StylePreset:      w.opts.StylePreset,
		MixWithAudiobook: w.opts.MixWithAudiobook,
	}, nil
}

// Submit creates the job. It is rejected without a request unless the
// upload has succeeded; a failed request leaves the wizard in Uploaded.
func (w *Wizard) Submit(ctx context.Context) (jobsapi.CreateJobResponse, error) {
	w.mu.Lock()
	req, err := w.requestLocked()
	if err != nil {
		w.mu.Unlock()
		return jobsapi.CreateJobResponse{}, err
	}
	w.state = SubmittingJob
	generation := w.generation
	w.mu.Unlock()

	resp, err := w.api.CreateJob(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.generation != generation {
		// The backend may still have created the job; hand it back.
		return resp, ErrCleared
	}
	if err != nil {
		w.state = Uploaded
		w.logger.Warn("job creation failed", logging.Error(err))
		return jobsapi.CreateJobResponse{}, err
	}
	w.state = Submitted
	w.result = &resp
	w.logger.Info("job submitted", logging.JobID(resp.JobID))
	return resp, nil
}
