package poller

import (
	"context"
	"log/slog"
	"time"

	"bookscore/internal/jobsapi"
	"bookscore/internal/logging"
)

// ListWatchOptions configures WatchList.
type ListWatchOptions struct {
	Interval time.Duration
	Cache    Cache
	Logger   *slog.Logger
	OnUpdate func(jobsapi.ListResponse)
	OnError  func(error)
}

// ListWatch polls the job list until cancelled.
type ListWatch struct {
	sub *Subscription[jobsapi.ListResponse]
}

// WatchList starts polling the job list on p.
func WatchList(ctx context.Context, p *Poller[jobsapi.ListResponse], api ListAPI, opts ListWatchOptions) *ListWatch {
	logger := logging.NewComponentLogger(opts.Logger, "list-watch")
	fetch := func(ctx context.Context) (jobsapi.ListResponse, error) {
		resp, err := api.ListJobs(ctx)
		if err != nil {
			return jobsapi.ListResponse{}, err
		}
		if opts.Cache != nil {
			for _, job := range resp.Jobs {
				if err := opts.Cache.RecordJob(ctx, job); err != nil {
					logger.Warn("record job snapshot failed", logging.JobID(job.JobID), logging.Error(err))
					break
				}
			}
		}
		return resp, nil
	}
	sub := p.Subscribe(ctx, "jobs:list", fetch, Options[jobsapi.ListResponse]{
		Interval: opts.Interval,
		OnResult: opts.OnUpdate,
		OnError:  opts.OnError,
	})
	return &ListWatch{sub: sub}
}

// Subscription exposes the underlying poll loop.
func (w *ListWatch) Subscription() *Subscription[jobsapi.ListResponse] { return w.sub }

// Cancel stops polling.
func (w *ListWatch) Cancel() { w.sub.Cancel() }

// Wait blocks until polling has stopped.
func (w *ListWatch) Wait() { w.sub.Wait() }
