package jobsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookscore/internal/config"
	"bookscore/internal/logging"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 10 * time.Minute
	maxErrorBody         = 4096

	headerRequestID = "X-Request-ID"
	uploadFieldName = "data"
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL            string
	Token              string
	StatusPathPrefix   string
	SegmentsPathPrefix string
	HTTPClient         *http.Client
	// UploadHTTPClient carries multipart uploads; it defaults to a client with
	// a longer timeout than HTTPClient.
	UploadHTTPClient *http.Client
	Logger           *slog.Logger
}

// Client wraps the scoring backend REST API.
type Client struct {
	base           *url.URL
	token          string
	statusPrefix   string
	segmentsPrefix string
	http           *http.Client
	uploadHTTP     *http.Client
	logger         *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("jobsapi: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("jobsapi: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("jobsapi: base url %q must be absolute", raw)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	uploadClient := cfg.UploadHTTPClient
	if uploadClient == nil {
		uploadClient = &http.Client{Timeout: defaultUploadTimeout}
	}
	return &Client{
		base:           base,
		token:          strings.TrimSpace(cfg.Token),
		statusPrefix:   strings.Trim(strings.TrimSpace(cfg.StatusPathPrefix), "/"),
		segmentsPrefix: strings.Trim(strings.TrimSpace(cfg.SegmentsPathPrefix), "/"),
		http:           httpClient,
		uploadHTTP:     uploadClient,
		logger:         logging.NewComponentLogger(cfg.Logger, "jobsapi"),
	}, nil
}

// NewFromConfig builds a Client from application configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("jobsapi: config is required")
	}
	return New(Config{
		BaseURL:            cfg.API.BaseURL,
		Token:              cfg.API.Token,
		StatusPathPrefix:   cfg.API.StatusPathPrefix,
		SegmentsPathPrefix: cfg.API.SegmentsPathPrefix,
		HTTPClient:         &http.Client{Timeout: cfg.APITimeout()},
		UploadHTTPClient:   &http.Client{Timeout: cfg.UploadTimeout()},
		Logger:             logger,
	})
}

type envelope struct {
	Success *bool `json:"success"`
}

func (e envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

// ListJobs returns every job the backend reports along with aggregate counts.
func (c *Client) ListJobs(ctx context.Context) (ListResponse, error) {
	const op = "list jobs"
	var payload struct {
		envelope
		ListResponse
	}
	body, status, err := c.getJSON(ctx, op, c.endpoint("", "jobs", "list"), &payload)
	if err != nil {
		return ListResponse{}, err
	}
	if payload.failed() {
		return ListResponse{}, &HTTPError{Op: op, StatusCode: status, Body: truncate(body)}
	}
	return payload.ListResponse, nil
}

// JobStatus fetches a single job. A 404 or a success=false envelope yields
// a NotFoundError.
func (c *Client) JobStatus(ctx context.Context, jobID string) (Job, error) {
	const op = "job status"
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Job{}, &ValidationError{Field: "jobId"}
	}
	ctx = logging.WithJobID(ctx, jobID)
	var payload struct {
		envelope
		Job *Job `json:"job"`
	}
	_, _, err := c.getJSON(ctx, op, c.endpoint(c.statusPrefix, "jobs", "status", jobID), &payload)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return Job{}, &NotFoundError{JobID: jobID}
		}
		return Job{}, err
	}
	if payload.failed() || payload.Job == nil {
		return Job{}, &NotFoundError{JobID: jobID}
	}
	return *payload.Job, nil
}

// JobSegments fetches the analysed segments of a job. An empty list is a
// legitimate answer for jobs that have not finished transcription.
func (c *Client) JobSegments(ctx context.Context, jobID string) (SegmentsResponse, error) {
	const op = "job segments"
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return SegmentsResponse{}, &ValidationError{Field: "jobId"}
	}
	ctx = logging.WithJobID(ctx, jobID)
	var payload struct {
		envelope
		SegmentsResponse
	}
	body, status, err := c.getJSON(ctx, op, c.endpoint(c.segmentsPrefix, "jobs", "segments", jobID), &payload)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return SegmentsResponse{}, &NotFoundError{JobID: jobID}
		}
		return SegmentsResponse{}, err
	}
	if payload.failed() {
		return SegmentsResponse{}, &HTTPError{Op: op, StatusCode: status, Body: truncate(body)}
	}
	resp := payload.SegmentsResponse
	if resp.JobID == "" {
		resp.JobID = jobID
	}
	if resp.Segments == nil {
		resp.Segments = []Segment{}
	}
	if resp.TotalSegments == 0 {
		resp.TotalSegments = len(resp.Segments)
	}
	return resp, nil
}

// UploadFile streams r to the backend as the multipart field "data". Every
// failure, including validation of the response, is returned as an UploadError.
func (c *Client) UploadFile(ctx context.Context, r io.Reader, fileName, fileType string) (UploadedFile, error) {
	const op = "upload file"
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return UploadedFile{}, &UploadError{FileName: fileName, Err: &ValidationError{Field: "fileName"}}
	}
	if r == nil {
		return UploadedFile{}, &UploadError{FileName: fileName, Err: errors.New("no file content")}
	}
	fileType = strings.TrimSpace(fileType)
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadPart(writer, r, fileName, fileType))
	}()

	endpoint := c.endpoint("", "files", "upload")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), pr)
	if err != nil {
		pr.Close()
		return UploadedFile{}, &UploadError{FileName: fileName, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var payload struct {
		envelope
		File *UploadedFile `json:"file"`
	}
	body, status, err := c.do(ctx, op, c.uploadHTTP, req, &payload)
	pr.Close()
	if err != nil {
		return UploadedFile{}, &UploadError{FileName: fileName, Err: err}
	}
	if payload.failed() || payload.File == nil {
		return UploadedFile{}, &UploadError{FileName: fileName, Err: &HTTPError{Op: op, StatusCode: status, Body: truncate(body)}}
	}
	file := *payload.File
	if strings.TrimSpace(file.FileURL) == "" {
		return UploadedFile{}, &UploadError{FileName: fileName, Err: errors.New("response missing fileUrl")}
	}
	if file.FileName == "" {
		file.FileName = fileName
	}
	if file.FileType == "" {
		file.FileType = fileType
	}
	if file.OriginalFileName == "" {
		file.OriginalFileName = fileName
	}
	return file, nil
}

func writeUploadPart(writer *multipart.Writer, r io.Reader, fileName, fileType string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadFieldName, fileName))
	header.Set("Content-Type", fileType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}
	return nil
}

// CreateJob submits a scoring job. The upload triple is checked before any
// request is issued.
func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (CreateJobResponse, error) {
	const op = "create job"
	req.FileURL = strings.TrimSpace(req.FileURL)
	req.FileName = strings.TrimSpace(req.FileName)
	req.FileType = strings.TrimSpace(req.FileType)
	req.Title = strings.TrimSpace(req.Title)
	switch {
	case req.FileURL == "":
		return CreateJobResponse{}, &ValidationError{Field: "fileUrl", Message: "upload the file before submitting"}
	case req.FileName == "":
		return CreateJobResponse{}, &ValidationError{Field: "fileName", Message: "upload the file before submitting"}
	case req.FileType == "":
		return CreateJobResponse{}, &ValidationError{Field: "fileType", Message: "upload the file before submitting"}
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return CreateJobResponse{}, fmt.Errorf("%s: encode request: %w", op, err)
	}
	endpoint := c.endpoint("", "jobs", "create")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(encoded))
	if err != nil {
		return CreateJobResponse{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var payload struct {
		envelope
		CreateJobResponse
		Job *struct {
			JobID  string `json:"jobId"`
			Status string `json:"status"`
		} `json:"job"`
	}
	body, status, err := c.do(ctx, op, c.http, httpReq, &payload)
	if err != nil {
		return CreateJobResponse{}, err
	}
	if payload.failed() {
		return CreateJobResponse{}, &HTTPError{Op: op, StatusCode: status, Body: truncate(body)}
	}
	resp := payload.CreateJobResponse
	if payload.Job != nil {
		if resp.JobID == "" {
			resp.JobID = payload.Job.JobID
		}
		if resp.Status == "" {
			resp.Status = payload.Job.Status
		}
	}
	return resp, nil
}

// endpoint joins prefix and segments onto the base URL, keeping any path the
// base already carries.
func (c *Client) endpoint(prefix string, segments ...string) *url.URL {
	elems := make([]string, 0, len(segments)+1)
	if prefix != "" {
		elems = append(elems, prefix)
	}
	elems = append(elems, segments...)
	return c.base.JoinPath(elems...)
}

func (c *Client) getJSON(ctx context.Context, op string, endpoint *url.URL, out any) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", op, err)
	}
	return c.do(ctx, op, c.http, req, out)
}

// do sends req and decodes a 2xx body into out. It returns the raw body and
// status so callers can build envelope errors.
func (c *Client) do(ctx context.Context, op string, client *http.Client, req *http.Request, out any) ([]byte, int, error) {
	requestID, ok := logging.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	c.applyHeaders(req, requestID)
	logger := logging.WithContext(logging.WithRequestID(ctx, requestID), c.logger)

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logger.Debug("backend request failed",
			logging.String("op", op),
			logging.String("path", req.URL.Path),
			logging.Error(err),
		)
		return nil, 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	logger.Debug("backend request",
		logging.String("op", op),
		logging.String("method", req.Method),
		logging.String("path", req.URL.Path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: truncate(body)}
	}
	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return body, resp.StatusCode, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return body, resp.StatusCode, nil
}

func (c *Client) applyHeaders(req *http.Request, requestID string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
