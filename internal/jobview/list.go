package jobview

import (
	"fmt"
	"strings"

	"bookscore/internal/jobsapi"
)

// Filter selects which jobs the list view shows.
type Filter string

const (
	FilterAll          Filter = "all"
	FilterQueued       Filter = jobsapi.StatusQueued
	FilterTranscribing Filter = jobsapi.StatusTranscribing
	FilterAnalyzing    Filter = jobsapi.StatusAnalyzing
	FilterComposing    Filter = jobsapi.StatusComposing
	FilterMixing       Filter = jobsapi.StatusMixing
	FilterCompleted    Filter = jobsapi.StatusCompleted
)

// Filters lists the filter tabs in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterQueued, FilterTranscribing, FilterAnalyzing, FilterComposing, FilterMixing, FilterCompleted}
}

// ParseFilter accepts a filter name case-insensitively; blank means all.
func ParseFilter(value string) (Filter, error) {
	filter := Filter(strings.ToLower(strings.TrimSpace(value)))
	if filter == "" {
		return FilterAll, nil
	}
	for _, known := range Filters() {
		if filter == known {
			return filter, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", value)
}

// Label is the tab caption.
func (f Filter) Label() string {
	return DisplayStatus(string(f))
}

// FilterJobs keeps jobs whose lower-cased status equals filter, or all jobs
// for FilterAll. Order is preserved and the input is not modified.
func FilterJobs(jobs []jobsapi.Job, filter Filter) []jobsapi.Job {
	out := make([]jobsapi.Job, 0, len(jobs))
	for _, job := range jobs {
		if filter == FilterAll || strings.ToLower(job.Status) == string(filter) {
			out = append(out, job)
		}
	}
	return out
}

// StatsView is the list view's aggregate bar.
type StatsView struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// ProcessingCount sums the in-flight stages.
func ProcessingCount(stats jobsapi.Stats) int {
	return stats.Transcribing + stats.Analyzing + stats.Composing + stats.Mixing
}

// DeriveStats passes backend counts through and folds the in-flight stages
// into Processing.
func DeriveStats(stats jobsapi.Stats) StatsView {
	return StatsView{
		Total:      stats.Total,
		Queued:     stats.Queued,
		Processing: ProcessingCount(stats),
		Completed:  stats.Completed,
		Failed:     stats.Failed,
	}
}

// ListRow is one rendered line of the jobs table.
type ListRow struct {
	JobID           string `json:"jobId"`
	FileName        string `json:"fileName"`
	Status          string `json:"status"`
	DisplayStatus   string `json:"displayStatus"`
	ProgressVisible bool   `json:"progressVisible"`
	ProgressWidth   int    `json:"progressWidth"`
	Created         string `json:"created"`
}

// DeriveRows builds table rows in input order.
func DeriveRows(jobs []jobsapi.Job) []ListRow {
	rows := make([]ListRow, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, ListRow{
			JobID:           job.JobID,
			FileName:        job.DisplayFileName(),
			Status:          job.Status,
			DisplayStatus:   DisplayStatus(job.Status),
			ProgressVisible: ListProgressVisible(job.Status),
			ProgressWidth:   ProgressWidth(job.Progress),
			Created:         formatDate(job),
		})
	}
	return rows
}

const (
	listDateLayout   = "01/02/2006"
	detailDateLayout = "01/02/2006, 03:04 PM"
)

func formatDate(job jobsapi.Job) string {
	ts, ok := job.CreatedTime()
	if !ok {
		return job.CreatedAt
	}
	return ts.Local().Format(listDateLayout)
}
