package jobview

import (
	"strings"
	"time"

	"bookscore/internal/jobsapi"
)

// BookView is the book information block of the detail view.
type BookView struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Year        string   `json:"year"`
	Description string   `json:"description"`
	Genres      []string `json:"genres,omitempty"`
}

// DetailView holds every display field of the job detail view. It is
// recomputed from the job on each refresh.
type DetailView struct {
	JobID              string           `json:"jobId"`
	FileName           string           `json:"fileName"`
	Status             string           `json:"status"`
	DisplayStatus      string           `json:"displayStatus"`
	Progress           float64          `json:"progress"`
	ProgressWidth      int              `json:"progressWidth"`
	IsTerminal         bool             `json:"isTerminal"`
	ShowLiveIndicator  bool             `json:"showLiveIndicator"`
	ProgressBarVisible bool             `json:"progressBarVisible"`
	Created            string           `json:"created"`
	Updated            string           `json:"updated"`
	Error              string           `json:"error,omitempty"`
	Book               *BookView        `json:"book,omitempty"`
	Outputs            *jobsapi.Outputs `json:"outputs,omitempty"`
	ResultsReady       bool             `json:"resultsReady"`
}

// DeriveDetail computes the detail view of job.
func DeriveDetail(job jobsapi.Job) DetailView {
	view := DetailView{
		JobID:              job.JobID,
		FileName:           job.DisplayFileName(),
		Status:             job.Status,
		DisplayStatus:      DisplayStatus(job.Status),
		Progress:           job.Progress,
		ProgressWidth:      ProgressWidth(job.Progress),
		IsTerminal:         IsTerminal(job.Status),
		ShowLiveIndicator:  ShowLiveIndicator(job.Status),
		ProgressBarVisible: ProgressBarVisible(job.Status),
		Created:            formatDetailTime(job.CreatedAt, job.CreatedTime),
		Updated:            formatDetailTime(job.UpdatedAt, job.UpdatedTime),
		Error:              job.ErrorMessage(),
		Outputs:            job.Outputs,
	}
	if job.Metadata != nil {
		view.Book = &BookView{
			Title:       strings.TrimSpace(job.Metadata.Title),
			Author:      strings.TrimSpace(job.Metadata.Author),
			Year:        job.Metadata.Year.String(),
			Description: strings.TrimSpace(job.Metadata.Description),
			Genres:      append([]string(nil), job.Metadata.Genres...),
		}
	}
	view.ResultsReady = IsCompleted(job.Status) && job.Outputs != nil
	return view
}

func formatDetailTime(raw string, parse func() (time.Time, bool)) string {
	ts, ok := parse()
	if !ok {
		return raw
	}
	return ts.Local().Format(detailDateLayout)
}
