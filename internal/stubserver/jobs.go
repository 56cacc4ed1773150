package stubserver

import (
	"fmt"
	"strings"
	"time"

	"bookscore/internal/jobsapi"
)

type stage struct {
	status   string
	progress float64
	segments int
}

// pipeline is the order a healthy job moves through.
var pipeline = []stage{
	{jobsapi.StatusQueued, 0, 0},
	{jobsapi.StatusTranscribing, 35, 0},
	{jobsapi.StatusAnalyzing, 60, 2},
	{jobsapi.StatusComposing, 80, 4},
	{jobsapi.StatusMixing, 95, len(script)},
	{jobsapi.StatusCompleted, 100, len(script)},
}

type line struct {
	text      string
	duration  float64
	mood      string
	intensity float64
	tempo     string
	voices    string
}

var script = []line{
	{"The house stood silent at the end of the lane.", 6.5, "mysterious", 4, "slow", "low strings, celesta"},
	{"She found the letter tucked inside the old atlas.", 5.2, "nostalgic", 5, "moderate", "piano, solo cello"},
	{"Footsteps sounded on the stairs behind her.", 4.8, "suspense", 7, "building", "pizzicato strings, timpani"},
	{"She ran, the lantern swinging wildly in her hand.", 5.9, "action", 9, "fast", "full orchestra, brass"},
	{"At dawn the garden was washed in pale light.", 6.1, "peaceful", 3, "slow", "harp, flute"},
	{"For the first time in years, she laughed.", 4.4, "hopeful", 6, "moderate", "strings, horns"},
}

type record struct {
	job       jobsapi.Job
	stage     int
	created   time.Time
	failed    bool
	segmentAt int
}

func (r *record) snapshot() jobsapi.Job {
	job := r.job
	if job.Metadata != nil {
		meta := *job.Metadata
		meta.Genres = append([]string(nil), meta.Genres...)
		job.Metadata = &meta
	}
	if job.Outputs != nil {
		out := *job.Outputs
		job.Outputs = &out
	}
	if job.FileReference != nil {
		ref := *job.FileReference
		job.FileReference = &ref
	}
	if job.Error != nil {
		msg := *job.Error
		job.Error = &msg
	}
	return job
}

func (r *record) terminal() bool {
	return r.failed || r.stage == len(pipeline)-1
}

// setStage moves the record to pipeline index idx and updates the job fields
// that depend on it.
func (r *record) setStage(idx int, now time.Time) {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(pipeline) {
		idx = len(pipeline) - 1
	}
	r.stage = idx
	st := pipeline[idx]
	r.job.Status = st.status
	r.job.Progress = st.progress
	r.job.UpdatedAt = now.UTC().Format(time.RFC3339)
	if st.segments > r.segmentAt {
		r.segmentAt = st.segments
	}
	if st.status == jobsapi.StatusCompleted {
		r.job.Outputs = &jobsapi.Outputs{
			MusicOnlyURL: fmt.Sprintf("stub://outputs/%s/music.mp3", r.job.JobID),
			MixedURL:     fmt.Sprintf("stub://outputs/%s/mixed.mp3", r.job.JobID),
		}
	}
}

func (r *record) fail(reason string, now time.Time) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "processing failed"
	}
	r.failed = true
	r.job.Status = jobsapi.StatusFailed
	r.job.Error = &reason
	r.job.UpdatedAt = now.UTC().Format(time.RFC3339)
}

func (r *record) segments() []jobsapi.Segment {
	out := make([]jobsapi.Segment, 0, r.segmentAt)
	var start float64
	for i := 0; i < r.segmentAt && i < len(script); i++ {
		l := script[i]
		out = append(out, jobsapi.Segment{
			JobID:     r.job.JobID,
			SegmentID: fmt.Sprintf("%s-seg-%03d", r.job.JobID, i+1),
			Text:      l.text,
			Start:     start,
			End:       start + l.duration,
			Duration:  l.duration,
			Mood:      l.mood,
			Intensity: l.intensity,
			MusicalSuggestions: jobsapi.MusicalSuggestions{
				Tempo:           l.tempo,
				Instrumentation: l.voices,
			},
		})
		start += l.duration
	}
	return out
}

func deriveStats(records []*record) jobsapi.Stats {
	var stats jobsapi.Stats
	for _, r := range records {
		stats.Total++
		switch r.job.Status {
		case jobsapi.StatusQueued:
			stats.Queued++
		case jobsapi.StatusTranscribing:
			stats.Transcribing++
		case jobsapi.StatusAnalyzing:
			stats.Analyzing++
		case jobsapi.StatusComposing:
			stats.Composing++
		case jobsapi.StatusMixing:
			stats.Mixing++
		case jobsapi.StatusCompleted:
			stats.Completed++
		case jobsapi.StatusFailed:
			stats.Failed++
		}
		if strings.HasPrefix(r.job.Input.FileType, "application/pdf") {
			stats.ByCategory.PDF++
		} else {
			stats.ByCategory.Audio++
		}
	}
	return stats
}
