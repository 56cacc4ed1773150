package stubserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"bookscore/internal/config"
	"bookscore/internal/jobsapi"
	"bookscore/internal/logging"
)

// Options configures a Server.
type Options struct {
	// BasePath is mounted in front of every route, e.g. "/webhook".
	BasePath           string
	Token              string
	StatusPathPrefix   string
	SegmentsPathPrefix string
	// Step advances every job one stage per interval. Zero leaves jobs where
	// they are until Advance is called.
	Step   time.Duration
	Clock  func() time.Time
	Logger *slog.Logger
}

// Server holds the in-memory job table and serves the backend routes.
type Server struct {
	opts   Options
	router *mux.Router
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]*record
	uploads map[string]jobsapi.UploadedFile

	listener net.Listener
	server   *http.Server
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.BasePath = cleanPrefix(opts.BasePath)
	opts.StatusPathPrefix = cleanPrefix(opts.StatusPathPrefix)
	opts.SegmentsPathPrefix = cleanPrefix(opts.SegmentsPathPrefix)

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "dev-server"),
		jobs:    make(map[string]*record),
		uploads: make(map[string]jobsapi.UploadedFile),
	}
	s.router = s.routes()
	return s
}

// NewFromConfig builds a Server that answers on the paths cfg's client uses.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Server {
	return New(Options{
		Token:              cfg.API.Token,
		StatusPathPrefix:   cfg.API.StatusPathPrefix,
		SegmentsPathPrefix: cfg.API.SegmentsPathPrefix,
		Step:               time.Duration(cfg.DevServer.StepSeconds) * time.Second,
		Logger:             logger,
	})
}

func cleanPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	api := router
	if s.opts.BasePath != "" {
		api = router.PathPrefix(s.opts.BasePath).Subrouter()
	}
	api.Use(s.logRequests)
	api.Use(authMiddleware(s.opts.Token))

	api.HandleFunc("/jobs/list", s.handleList).Methods(http.MethodGet)
	api.HandleFunc(s.opts.StatusPathPrefix+"/jobs/status/{id}", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc(s.opts.SegmentsPathPrefix+"/jobs/segments/{id}", s.handleSegments).Methods(http.MethodGet)
	api.HandleFunc("/files/upload", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/jobs/create", s.handleCreate).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, failure("route not found"))
	})
	return router
}

// ServeHTTP lets the Server be mounted on httptest or any http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on bind and serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context, bind string) error {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("dev server listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dev server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("dev server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("base_path", s.opts.BasePath),
		logging.Duration("step", s.opts.Step),
	)
	return nil
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// Advance moves jobID one stage along the pipeline and returns its new status.
func (s *Server) Advance(jobID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return "", fmt.Errorf("unknown job %q", jobID)
	}
	if !rec.terminal() {
		rec.setStage(rec.stage+1, s.opts.Clock())
	}
	return rec.job.Status, nil
}

// Fail marks jobID as failed with reason.
func (s *Server) Fail(jobID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job %q", jobID)
	}
	rec.fail(reason, s.opts.Clock())
	return nil
}

// JobIDs lists known jobs, newest first.
func (s *Server) JobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.sortedLocked()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.job.JobID
	}
	return ids
}

func (s *Server) sortedLocked() []*record {
	records := make([]*record, 0, len(s.jobs))
	for _, r := range s.jobs {
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].created.Equal(records[j].created) {
			return records[i].job.JobID < records[j].job.JobID
		}
		return records[i].created.After(records[j].created)
	})
	return records
}

// catchUpLocked applies timed progression to rec.
func (s *Server) catchUpLocked(rec *record) {
	if s.opts.Step <= 0 || rec.terminal() {
		return
	}
	now := s.opts.Clock()
	target := int(now.Sub(rec.created) / s.opts.Step)
	if target > rec.stage {
		rec.setStage(target, now)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := s.sortedLocked()
	jobs := make([]jobsapi.Job, 0, len(records))
	for _, rec := range records {
		s.catchUpLocked(rec)
		jobs = append(jobs, rec.snapshot())
	}
	stats := deriveStats(records)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"jobs":    jobs,
		"stats":   stats,
		"pagination": jobsapi.Pagination{
			Total: len(jobs),
			Limit: len(jobs),
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	rec, ok := s.jobs[id]
	var job jobsapi.Job
	if ok {
		s.catchUpLocked(rec)
		job = rec.snapshot()
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, failure("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": job})
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	rec, ok := s.jobs[id]
	var segments []jobsapi.Segment
	if ok {
		s.catchUpLocked(rec)
		segments = rec.segments()
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, failure("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"jobId":         id,
		"segments":      segments,
		"totalSegments": len(segments),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failure("multipart body required"))
		return
	}
	for {
		part, err := reader.NextPart()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, failure("missing data field"))
			return
		}
		if part.FormName() != "data" {
			_ = part.Close()
			continue
		}
		size, err := io.Copy(io.Discard, part)
		_ = part.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, failure("read upload: "+err.Error()))
			return
		}
		original := part.FileName()
		fileType := part.Header.Get("Content-Type")
		if strings.TrimSpace(original) == "" {
			writeJSON(w, http.StatusBadRequest, failure("file name required"))
			return
		}
		stored := uuid.NewString() + "-" + original
		category := "audio"
		if strings.HasPrefix(fileType, "application/pdf") {
			category = "pdf"
		}
		uploaded := jobsapi.UploadedFile{
			OriginalFileName: original,
			FileName:         stored,
			FileURL:          "stub://files/" + stored,
			FileType:         fileType,
			FileSize:         jobsapi.FlexString(fmt.Sprint(size)),
			Category:         category,
			UploadedAt:       s.opts.Clock().UTC().Format(time.RFC3339),
		}
		s.mu.Lock()
		s.uploads[uploaded.FileURL] = uploaded
		s.mu.Unlock()

		s.logger.Info("file uploaded",
			logging.String("file_name", original),
			logging.Int64("bytes", size),
		)
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			jobsapi.UploadedFile
		}{true, uploaded})
		return
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req jobsapi.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failure("invalid json body"))
		return
	}
	if strings.TrimSpace(req.FileURL) == "" || strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.FileType) == "" {
		writeJSON(w, http.StatusBadRequest, failure("fileUrl, fileName and fileType are required"))
		return
	}

	s.mu.Lock()
	upload, known := s.uploads[req.FileURL]
	if !known {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, failure("unknown fileUrl"))
		return
	}
	now := s.opts.Clock()
	id := uuid.NewString()
	rec := &record{
		created: now,
		job: jobsapi.Job{
			JobID:     id,
			CreatedAt: now.UTC().Format(time.RFC3339),
			Input: jobsapi.JobInput{
				FileName:         req.FileName,
				FileURL:          req.FileURL,
				FileType:         req.FileType,
				Title:            req.Title,
				StylePreset:      req.StylePreset,
				MixWithAudiobook: req.MixWithAudiobook,
			},
			FileReference: &jobsapi.FileReference{
				Type:     upload.Category,
				URL:      upload.FileURL,
				FileName: upload.OriginalFileName,
				FileType: upload.FileType,
			},
		},
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		rec.job.Metadata = &jobsapi.Metadata{Title: title}
	}
	rec.setStage(0, now)
	s.jobs[id] = rec
	s.mu.Unlock()

	s.logger.Info("job created",
		logging.JobID(id),
		logging.String("file_name", req.FileName),
		logging.String("style_preset", req.StylePreset),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"jobId":   id,
		"status":  jobsapi.StatusQueued,
		"message": "Job created",
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(started)),
			logging.String("request_id", r.Header.Get("X-Request-ID")),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func failure(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}
