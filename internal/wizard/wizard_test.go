package wizard

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bookscore/internal/jobsapi"
	"bookscore/internal/store"
)

type memFile struct {
	name, fileType, content string
}

func (f memFile) Name() string { return f.name }

func (f memFile) Size() int64 { return int64(len(f.content)) }

func (f memFile) Type() string { return f.fileType }

func (f memFile) Open() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(f.content)), nil }

type fakeAPI struct {
	mu          sync.Mutex
	uploadErr   error
	uploaded    []string
	createErr   error
	createCalls []jobsapi.CreateJobRequest
}

func (f *fakeAPI) UploadFile(_ context.Context, r io.Reader, fileName, fileType string) (jobsapi.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return jobsapi.UploadedFile{}, f.uploadErr
	}
	data, _ := io.ReadAll(r)
	f.uploaded = append(f.uploaded, string(data))
	return jobsapi.UploadedFile{FileURL: "u", FileName: "n", FileType: "t", OriginalFileName: fileName}, nil
}

func (f *fakeAPI) CreateJob(_ context.Context, req jobsapi.CreateJobRequest) (jobsapi.CreateJobResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, req)
	if f.createErr != nil {
		return jobsapi.CreateJobResponse{}, f.createErr
	}
	return jobsapi.CreateJobResponse{JobID: "job-1", Status: "queued"}, nil
}

func newWizard(api API) (*Wizard, *store.Store) {
	st := store.New()
	return New(api, st, Options{StylePreset: "cinematic", MixWithAudiobook: true}), st
}

var audiobook = memFile{name: "dune.mp3", fileType: "audio/mpeg", content: "ID3-audio"}

func TestSubmitBeforeUploadIsRejected(t *testing.T) {
	api := &fakeAPI{}
	w, _ := newWizard(api)

	_, err := w.Submit(context.Background())
	var validation *jobsapi.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := w.ChooseFile(audiobook); err != nil {
		t.Fatalf("ChooseFile: %v", err)
	}
	if _, err := w.Submit(context.Background()); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError after choosing only, got %v", err)
	}
	if len(api.createCalls) != 0 {
		t.Fatalf("no create request may be issued, got %d", len(api.createCalls))
	}
}

func TestSubmitAfterUploadSendsTripleAndTitle(t *testing.T) {
	api := &fakeAPI{}
	w, st := newWizard(api)

	if err := w.ChooseFile(audiobook); err != nil {
		t.Fatalf("ChooseFile: %v", err)
	}
	if got := st.GetState().Book.AudioFile; got == nil || got.Name != "dune.mp3" || got.Size != 9 {
		t.Fatalf("expected file descriptor in store, got %+v", got)
	}
	if _, err := w.Upload(context.Background()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if w.State() != Uploaded || st.GetState().Book.Step != store.StepReview {
		t.Fatalf("expected Uploaded at step 2, got %s step %d", w.State(), st.GetState().Book.Step)
	}
	if err := w.SetTitle("Dune"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}

	resp, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.JobID != "job-1" || w.State() != Submitted {
		t.Fatalf("unexpected result %+v in %s", resp, w.State())
	}
	if len(api.createCalls) != 1 {
		t.Fatalf("expected exactly one create request, got %d", len(api.createCalls))
	}
	want := jobsapi.CreateJobRequest{FileURL: "u", FileName: "n", FileType: "t", Title: "Dune", StylePreset: "cinematic", MixWithAudiobook: true}
	if api.createCalls[0] != want {
		t.Fatalf("unexpected request %+v", api.createCalls[0])
	}
	if api.uploaded[0] != "ID3-audio" {
		t.Fatalf("unexpected uploaded bytes %q", api.uploaded[0])
	}
}

func TestEditsAreLockedUntilUploaded(t *testing.T) {
	w, _ := newWizard(&fakeAPI{})
	if err := w.SetTitle("Dune"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	_ = w.ChooseFile(audiobook)
	if err := w.AddGenre("Mystery"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked after choosing, got %v", err)
	}
}

func TestGenresAreUnique(t *testing.T) {
	w, st := newWizard(&fakeAPI{})
	_ = w.ChooseFile(audiobook)
	if _, err := w.Upload(context.Background()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	for _, genre := range []string{"Mystery", "Mystery", "  "} {
		if err := w.AddGenre(genre); err != nil {
			t.Fatalf("AddGenre(%q): %v", genre, err)
		}
	}
	if err := w.RemoveGenre("Fantasy"); err != nil {
		t.Fatalf("RemoveGenre: %v", err)
	}
	if got := st.GetState().Book.Details.Genres; len(got) != 1 || got[0] != "Mystery" {
		t.Fatalf("unexpected genres %v", got)
	}
}

func TestUploadFailureReturnsToAwaitingFile(t *testing.T) {
	uploadErr := &jobsapi.UploadError{FileName: "dune.mp3", Err: errors.New("boom")}
	w, st := newWizard(&fakeAPI{uploadErr: uploadErr})
	_ = w.ChooseFile(audiobook)

	_, err := w.Upload(context.Background())
	var got *jobsapi.UploadError
	if !errors.As(err, &got) {
		t.Fatalf("expected UploadError, got %v", err)
	}
	if w.State() != AwaitingFile {
		t.Fatalf("expected AwaitingFile, got %s", w.State())
	}
	if st.GetState().Book.AudioFile != nil {
		t.Fatal("failed upload should clear the chosen file")
	}
}

func TestSubmitFailureStaysUploaded(t *testing.T) {
	api := &fakeAPI{createErr: &jobsapi.HTTPError{Op: "create job", StatusCode: 500}}
	w, _ := newWizard(api)
	_ = w.ChooseFile(audiobook)
	if _, err := w.Upload(context.Background()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := w.Submit(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}
	if w.State() != Uploaded {
		t.Fatalf("expected Uploaded after failed submit, got %s", w.State())
	}
	api.createErr = nil
	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if len(api.createCalls) != 2 {
		t.Fatalf("expected two create attempts, got %d", len(api.createCalls))
	}
}

func TestClearDiscardsDraft(t *testing.T) {
	w, st := newWizard(&fakeAPI{})
	_ = w.ChooseFile(audiobook)
	_, _ = w.Upload(context.Background())
	_ = w.SetTitle("Dune")
	_ = w.AddGenre("Fantasy")

	if err := w.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	book := st.GetState().Book
	if w.State() != AwaitingFile || book.Step != store.StepUpload || book.Upload != nil {
		t.Fatalf("unexpected state after clear: %s %+v", w.State(), book)
	}
	if book.Details.Title != "" || len(book.Details.Genres) != 0 {
		t.Fatalf("draft metadata not discarded: %+v", book.Details)
	}
	if _, err := w.Upload(context.Background()); err == nil {
		t.Fatal("upload without a file must fail")
	}
}

func TestClearAfterSubmitIsRejected(t *testing.T) {
	w, _ := newWizard(&fakeAPI{})
	_ = w.ChooseFile(audiobook)
	_, _ = w.Upload(context.Background())
	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var transition *TransitionError
	if err := w.Clear(); !errors.As(err, &transition) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestDragActiveMirrorsStore(t *testing.T) {
	w, st := newWizard(&fakeAPI{})
	w.SetDragActive(true)
	if !st.GetState().Jobs.DragActive {
		t.Fatal("expected drag flag set")
	}
	_ = w.ChooseFile(audiobook)
	if st.GetState().Jobs.DragActive {
		t.Fatal("choosing a file ends the drag")
	}
}

func TestOpenLocalFileDetectsType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	file, err := OpenLocalFile(path)
	if err != nil {
		t.Fatalf("OpenLocalFile: %v", err)
	}
	if file.Name() != "book.m4b" || file.Size() != 5 || file.Type() != "audio/mp4" {
		t.Fatalf("unexpected file %+v", file)
	}
	if _, err := OpenLocalFile(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}
