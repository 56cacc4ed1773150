package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bookscore/internal/jobsapi"
	"bookscore/internal/jobview"
	"bookscore/internal/logging"
)

// JobAPI is the part of the backend client a JobWatch needs.
type JobAPI interface {
	JobStatus(ctx context.Context, jobID string) (jobsapi.Job, error)
	JobSegments(ctx context.Context, jobID string) (jobsapi.SegmentsResponse, error)
}

// ListAPI is the part of the backend client a ListWatch needs.
type ListAPI interface {
	ListJobs(ctx context.Context) (jobsapi.ListResponse, error)
}

// Cache persists observed jobs and the segments of completed jobs.
type Cache interface {
	RecordJob(ctx context.Context, job jobsapi.Job) error
	CompletedSegments(ctx context.Context, jobID string) ([]jobsapi.Segment, bool, error)
	StoreCompletedSegments(ctx context.Context, jobID string, segments []jobsapi.Segment) error
}

// JobSnapshot is one applied refresh of a job.
type JobSnapshot struct {
	Job      jobsapi.Job
	Segments []jobsapi.Segment
	// SegmentsLoaded is true once any segment list has been obtained.
	SegmentsLoaded bool
	// SegmentsFromCache is true when the segments came from the local cache.
	SegmentsFromCache bool
	// SegmentsErr is a segment fetch failure; the status part is still valid.
	SegmentsErr error
	FetchedAt   time.Time
}

// JobWatchOptions configures WatchJob.
type JobWatchOptions struct {
	Interval time.Duration
	Cache    Cache
	Logger   *slog.Logger
	OnUpdate func(JobSnapshot)
	OnError  func(error)
}

// JobWatch polls a single job until it reaches a terminal state and its
// segments have loaded.
type JobWatch struct {
	api    JobAPI
	jobID  string
	cache  Cache
	logger *slog.Logger
	sub    *Subscription[JobSnapshot]

	mu             sync.Mutex
	segments       []jobsapi.Segment
	segmentsLoaded bool
	segmentsFinal  bool
	fromCache      bool
}

// WatchJob starts polling jobID on p. The watch ends on its own once the job
// is completed or failed and its segments are in hand.
func WatchJob(ctx context.Context, p *Poller[JobSnapshot], api JobAPI, jobID string, opts JobWatchOptions) *JobWatch {
	ctx = logging.WithJobID(ctx, jobID)
	w := newJobWatch(ctx, api, jobID, opts)
	w.sub = p.Subscribe(ctx, "job:"+jobID, w.fetch, Options[JobSnapshot]{
		Interval: opts.Interval,
		Done:     watchFinished,
		OnResult: opts.OnUpdate,
		OnError:  opts.OnError,
	})
	return w
}

// FetchJob performs a single refresh of jobID with the same segment and
// cache rules as WatchJob, without starting a poll loop.
func FetchJob(ctx context.Context, api JobAPI, jobID string, opts JobWatchOptions) (JobSnapshot, error) {
	ctx = logging.WithJobID(ctx, jobID)
	return newJobWatch(ctx, api, jobID, opts).fetch(ctx)
}

func newJobWatch(ctx context.Context, api JobAPI, jobID string, opts JobWatchOptions) *JobWatch {
	return &JobWatch{
		api:    api,
		jobID:  jobID,
		cache:  opts.Cache,
		logger: logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "job-watch")),
	}
}

// Subscription exposes the underlying poll loop.
func (w *JobWatch) Subscription() *Subscription[JobSnapshot] { return w.sub }

// Cancel stops polling.
func (w *JobWatch) Cancel() { w.sub.Cancel() }

// Wait blocks until polling has stopped.
func (w *JobWatch) Wait() { w.sub.Wait() }

// Last returns the most recent snapshot.
func (w *JobWatch) Last() (JobSnapshot, bool) { return w.sub.Last() }

func (w *JobWatch) fetch(ctx context.Context) (JobSnapshot, error) {
	job, err := w.api.JobStatus(ctx, w.jobID)
	if err != nil {
		return JobSnapshot{}, err
	}
	w.logger.Debug("job status fetched", logging.Status(job.Status), logging.Int("progress", int(job.Progress)))
	if w.cache != nil {
		if err := w.cache.RecordJob(ctx, job); err != nil {
			w.logger.Warn("record job snapshot failed", logging.Status(job.Status), logging.Error(err))
		}
	}

	snap := JobSnapshot{Job: job, FetchedAt: time.Now()}
	snap.SegmentsErr = w.loadSegments(ctx, job)

	w.mu.Lock()
	snap.Segments = w.segments
	snap.SegmentsLoaded = w.segmentsLoaded
	snap.SegmentsFromCache = w.fromCache
	w.mu.Unlock()
	return snap, nil
}

// watchFinished reports whether a snapshot ends the watch: the job is
// terminal and its segments were fetched without error on that refresh.
// A terminal job whose segment request failed keeps polling until they load.
func watchFinished(snap JobSnapshot) bool {
	return jobview.IsTerminal(snap.Job.Status) && snap.SegmentsErr == nil
}

// wantsSegments decides whether status may have segments at all.
func wantsSegments(status string) bool {
	return jobview.SegmentsAvailable(status) || jobview.IsTerminal(status)
}

func (w *JobWatch) loadSegments(ctx context.Context, job jobsapi.Job) error {
	w.mu.Lock()
	final := w.segmentsFinal
	w.mu.Unlock()
	if final || !wantsSegments(job.Status) {
		return nil
	}

	completed := jobview.IsCompleted(job.Status)
	if completed && w.cache != nil {
		cached, ok, err := w.cache.CompletedSegments(ctx, w.jobID)
		if err != nil {
			w.logger.Warn("segment cache lookup failed", logging.Error(err))
		} else if ok {
			w.mu.Lock()
			w.segments = cached
			w.segmentsLoaded = true
			w.segmentsFinal = true
			w.fromCache = true
			w.mu.Unlock()
			w.logger.Debug("segments served from cache", logging.Int("segments", len(cached)))
			return nil
		}
	}

	resp, err := w.api.JobSegments(ctx, w.jobID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.segmentsFinal {
		w.mu.Unlock()
		return nil
	}
	// Segments only grow while a job runs; a shorter list is an older view.
	if !w.segmentsLoaded || len(resp.Segments) >= len(w.segments) {
		w.segments = resp.Segments
	}
	w.segmentsLoaded = true
	w.fromCache = false
	if jobview.IsTerminal(job.Status) {
		w.segmentsFinal = true
	}
	segments := w.segments
	w.mu.Unlock()

	if completed && w.cache != nil && len(segments) > 0 {
		if err := w.cache.StoreCompletedSegments(ctx, w.jobID, segments); err != nil {
			w.logger.Warn("store segments failed", logging.Error(err))
		}
	}
	return nil
}
