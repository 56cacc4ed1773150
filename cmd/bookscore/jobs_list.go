package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bookscore/internal/jobsapi"
	"bookscore/internal/jobview"
	"bookscore/internal/logging"
	"bookscore/internal/poller"
	"bookscore/internal/store"
)

type jobListJSON struct {
	Filter jobview.Filter     `json:"filter"`
	Stats  jobview.StatsView  `json:"stats"`
	Jobs   []jobview.ListRow  `json:"jobs"`
	Page   jobsapi.Pagination `json:"pagination"`
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string
	var watch bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scoring jobs with aggregate counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := jobview.ParseFilter(filterFlag)
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			st := store.New()
			st.Dispatch(store.SetFilter{Filter: filter})

			if !watch {
				resp, err := client.ListJobs(cmd.Context())
				if err != nil {
					return err
				}
				ctx.recordJobs(cmd, resp.Jobs)
				return printJobList(cmd, resp, st.GetState().Jobs.Filter, jsonOutput)
			}
			return watchJobList(cmd, ctx, client, st, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "all", "Status filter: all, queued, transcribing, analyzing, composing, mixing, completed")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh until interrupted")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func (c *commandContext) recordJobs(cmd *cobra.Command, jobs []jobsapi.Job) {
	cache := c.jobCache()
	if cache == nil {
		return
	}
	for _, job := range jobs {
		if err := cache.RecordJob(cmd.Context(), job); err != nil {
			c.log().Warn("record job snapshot failed", logging.JobID(job.JobID), logging.Error(err))
			return
		}
	}
}

func printJobList(cmd *cobra.Command, resp jobsapi.ListResponse, filter jobview.Filter, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, buildListJSON(resp, filter))
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderJobList(resp, filter, shouldColorize(out)))
	return nil
}

func buildListJSON(resp jobsapi.ListResponse, filter jobview.Filter) jobListJSON {
	return jobListJSON{
		Filter: filter,
		Stats:  jobview.DeriveStats(resp.Stats),
		Jobs:   jobview.DeriveRows(jobview.FilterJobs(resp.Jobs, filter)),
		Page:   resp.Pagination,
	}
}

func watchJobList(cmd *cobra.Command, ctx *commandContext, client *jobsapi.Client, st *store.Store, jsonOutput bool) error {
	cfg := ctx.configValue()
	runCtx, stop := interruptContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	var writeMu sync.Mutex

	p := poller.New[jobsapi.ListResponse](cfg.PollInterval(), ctx.log())
	defer p.Close()

	watch := poller.WatchList(runCtx, p, client, poller.ListWatchOptions{
		Cache:  ctx.pollCache(),
		Logger: ctx.log(),
		OnUpdate: func(resp jobsapi.ListResponse) {
			writeMu.Lock()
			defer writeMu.Unlock()
			filter := st.GetState().Jobs.Filter
			if jsonOutput {
				_ = writeJSONLine(cmd, buildListJSON(resp, filter))
				return
			}
			if colorize {
				fmt.Fprint(out, clearScreen)
			}
			fmt.Fprint(out, renderJobList(resp, filter, colorize))
			fmt.Fprintf(out, "\nRefreshing every %s. Press Ctrl-C to stop.\n", p.Interval())
		},
		OnError: func(err error) {
			writeMu.Lock()
			defer writeMu.Unlock()
			fmt.Fprintln(errOut, describeError(err))
		},
	})
	<-runCtx.Done()
	watch.Cancel()
	watch.Wait()
	return nil
}

func renderJobList(resp jobsapi.ListResponse, filter jobview.Filter, colorize bool) string {
	var b strings.Builder
	stats := jobview.DeriveStats(resp.Stats)
	fmt.Fprintf(&b, "Total: %d  Queued: %d  Processing: %d  Completed: %d  Failed: %d\n",
		stats.Total, stats.Queued, stats.Processing, stats.Completed, stats.Failed)
	b.WriteString(renderFilterTabs(filter))
	b.WriteString("\n")

	rows := jobview.DeriveRows(jobview.FilterJobs(resp.Jobs, filter))
	if len(rows) == 0 {
		if filter == jobview.FilterAll {
			b.WriteString("No jobs yet. Submit one with `bookscore submit <file>`.\n")
		} else {
			fmt.Fprintf(&b, "No %s jobs.\n", strings.ToLower(filter.Label()))
		}
		return b.String()
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		progress := ""
		if row.ProgressVisible {
			progress = renderProgressBar(row.ProgressWidth)
		}
		tableRows = append(tableRows, []string{
			row.FileName,
			colorizeStatus(row.Status, colorize),
			progress,
			row.Created,
			row.JobID,
		})
	}
	b.WriteString(renderTable([]column{
		left("File").clip(40),
		left("Status"),
		left("Progress"),
		left("Created"),
		left("Job ID"),
	}, tableRows))
	b.WriteString("\n")
	return b.String()
}

func renderFilterTabs(active jobview.Filter) string {
	parts := make([]string, 0, len(jobview.Filters()))
	for _, f := range jobview.Filters() {
		if f == active {
			parts = append(parts, "["+f.Label()+"]")
			continue
		}
		parts = append(parts, f.Label())
	}
	return "Filter: " + strings.Join(parts, " ")
}
