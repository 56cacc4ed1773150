package jobsapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Job statuses reported by the backend.
const (
	StatusQueued       = "queued"
	StatusTranscribing = "transcribing"
	StatusAnalyzing    = "analyzing"
	StatusComposing    = "composing"
	StatusMixing       = "mixing"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
)

// Job is one scoring job as observed through the status and list endpoints.
// Status is kept verbatim; compare it case-insensitively.
type Job struct {
	JobID         string         `json:"jobId"`
	Status        string         `json:"status"`
	Progress      float64        `json:"progress"`
	CreatedAt     string         `json:"createdAt"`
	UpdatedAt     string         `json:"updatedAt"`
	Input         JobInput       `json:"input"`
	Metadata      *Metadata      `json:"metadata,omitempty"`
	FileReference *FileReference `json:"fileReference,omitempty"`
	Outputs       *Outputs       `json:"outputs,omitempty"`
	Error         *string        `json:"error"`
}

// JobInput echoes what the job was submitted with.
type JobInput struct {
	FileName         string `json:"fileName"`
	FileURL          string `json:"fileUrl"`
	FileType         string `json:"fileType"`
	Title            string `json:"title"`
	StylePreset      string `json:"stylePreset"`
	MixWithAudiobook bool   `json:"mixWithAudiobook"`
}

// Metadata is the book information attached to a job. The backend sends
// either a single "genre" string or a "genres" array; both land in Genres.
type Metadata struct {
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Year        FlexString `json:"year"`
	Description string     `json:"description"`
	Genres      []string   `json:"genres,omitempty"`
}

// UnmarshalJSON accepts both the "genre" and "genres" shapes.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       string          `json:"title"`
		Author      string          `json:"author"`
		Year        FlexString      `json:"year"`
		Description string          `json:"description"`
		Genre       json.RawMessage `json:"genre"`
		Genres      json.RawMessage `json:"genres"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Title = raw.Title
	m.Author = raw.Author
	m.Year = raw.Year
	m.Description = raw.Description
	m.Genres = nil
	for _, field := range []json.RawMessage{raw.Genres, raw.Genre} {
		for _, genre := range decodeGenres(field) {
			if !containsFold(m.Genres, genre) {
				m.Genres = append(m.Genres, genre)
			}
		}
	}
	return nil
}

func decodeGenres(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimAll(list)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		// Some records carry a comma separated list in the singular field.
		return trimAll(strings.Split(single, ","))
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// FileReference points at the uploaded source file.
type FileReference struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// Outputs holds the rendered audio locations of a completed job.
type Outputs struct {
	MusicOnlyURL string `json:"musicOnlyUrl"`
	MixedURL     string `json:"mixedUrl"`
}

// ErrorMessage returns the backend-reported job error, or "".
func (j Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return strings.TrimSpace(*j.Error)
}

// DisplayFileName prefers the input file name, falling back to the file reference.
func (j Job) DisplayFileName() string {
	if name := strings.TrimSpace(j.Input.FileName); name != "" {
		return name
	}
	if j.FileReference != nil {
		return strings.TrimSpace(j.FileReference.FileName)
	}
	return ""
}

// CreatedTime parses CreatedAt.
func (j Job) CreatedTime() (time.Time, bool) {
	return parseTimestamp(j.CreatedAt)
}

// UpdatedTime parses UpdatedAt.
func (j Job) UpdatedTime() (time.Time, bool) {
	return parseTimestamp(j.UpdatedAt)
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Segment is one analysed stretch of narration.
type Segment struct {
	JobID              string             `json:"jobId"`
	SegmentID          string             `json:"segmentId"`
	Text               string             `json:"text"`
	Start              float64            `json:"start"`
	End                float64            `json:"end"`
	Duration           float64            `json:"duration"`
	Mood               string             `json:"mood"`
	Intensity          float64            `json:"intensity"`
	MusicalSuggestions MusicalSuggestions `json:"musicalSuggestions"`
}

// MusicalSuggestions are the composer hints for a segment. Keys other than
// the well-known ones are preserved in Extra.
type MusicalSuggestions struct {
	Tempo           string                     `json:"tempo,omitempty"`
	Instrumentation string                     `json:"instrumentation,omitempty"`
	Dynamics        string                     `json:"dynamics,omitempty"`
	Genre           string                     `json:"genre,omitempty"`
	Techniques      []string                   `json:"techniques,omitempty"`
	Extra           map[string]json.RawMessage `json:"-"`
}

var knownSuggestionKeys = []string{"tempo", "instrumentation", "dynamics", "genre", "techniques"}

func (s *MusicalSuggestions) UnmarshalJSON(data []byte) error {
	type plain MusicalSuggestions
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range knownSuggestionKeys {
		delete(all, key)
	}
	*s = MusicalSuggestions(decoded)
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

func (s MusicalSuggestions) MarshalJSON() ([]byte, error) {
	type plain MusicalSuggestions
	base, err := json.Marshal(plain(s))
	if err != nil || len(s.Extra) == 0 {
		return base, err
	}
	merged := make(map[string]json.RawMessage, len(s.Extra)+len(knownSuggestionKeys))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// IsEmpty reports whether no suggestion is present at all.
func (s MusicalSuggestions) IsEmpty() bool {
	return s.Tempo == "" && s.Instrumentation == "" && s.Dynamics == "" && s.Genre == "" &&
		len(s.Techniques) == 0 && len(s.Extra) == 0
}

// Stats are the backend's per-status job counts.
type Stats struct {
	Total        int           `json:"total"`
	Queued       int           `json:"queued"`
	Transcribing int           `json:"transcribing"`
	Analyzing    int           `json:"analyzing"`
	Composing    int           `json:"composing"`
	Mixing       int           `json:"mixing"`
	Completed    int           `json:"completed"`
	Failed       int           `json:"failed"`
	ByCategory   CategoryStats `json:"byCategory"`
}

// CategoryStats splits the job total by uploaded file category.
type CategoryStats struct {
	Audio int `json:"audio"`
	PDF   int `json:"pdf"`
}

// Pagination describes the window returned by ListJobs.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ListResponse is the decoded /jobs/list payload.
type ListResponse struct {
	Jobs       []Job      `json:"jobs"`
	Stats      Stats      `json:"stats"`
	Pagination Pagination `json:"pagination"`
}

// SegmentsResponse is the decoded segments payload.
type SegmentsResponse struct {
	JobID         string    `json:"jobId"`
	Segments      []Segment `json:"segments"`
	TotalSegments int       `json:"totalSegments"`
}

// UploadedFile describes a file accepted by /files/upload.
type UploadedFile struct {
	OriginalFileName string     `json:"originalFileName"`
	FileName         string     `json:"fileName"`
	FileURL          string     `json:"fileUrl"`
	FileType         string     `json:"fileType"`
	FileSize         FlexString `json:"fileSize"`
	Category         string     `json:"category"`
	UploadedAt       string     `json:"uploadedAt"`
}

// CreateJobRequest is the /jobs/create body. FileURL, FileName and FileType
// must come from a successful upload.
type CreateJobRequest struct {
	FileURL          string `json:"fileUrl"`
	FileName         string `json:"fileName"`
	FileType         string `json:"fileType"`
	Title            string `json:"title,omitempty"`
	StylePreset      string `json:"stylePreset,omitempty"`
	MixWithAudiobook bool   `json:"mixWithAudiobook"`
}

// CreateJobResponse is the job creation acknowledgement.
type CreateJobResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// FlexString decodes from either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Int returns the numeric value, or 0 when the value is not an integer.
func (f FlexString) Int() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
