package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"bookscore/internal/jobview"
)

var errCacheDisabled = errors.New("job cache is disabled (set cache.enabled = true)")

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local job cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached job and segment counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := ctx.jobCache()
			if cache == nil {
				return errCacheDisabled
			}
			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderField("Path", cache.Path()))
			fmt.Fprintln(out, renderField("Jobs", fmt.Sprint(stats.Jobs)))
			statuses := make([]string, 0, len(stats.JobsByStatus))
			for status := range stats.JobsByStatus {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				fmt.Fprintln(out, renderField("  "+jobview.DisplayStatus(status), fmt.Sprint(stats.JobsByStatus[status])))
			}
			fmt.Fprintln(out, renderField("Segments", fmt.Sprintf("%d across %d jobs", stats.Segments, stats.SegmentedJobs)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached job snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := ctx.jobCache()
			if cache == nil {
				return errCacheDisabled
			}
			jobs, err := cache.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(jobs))
			for _, cached := range jobs {
				rows = append(rows, []string{
					cached.Job.DisplayFileName(),
					colorizeStatus(cached.Job.Status, colorize),
					cached.ObservedAt.Local().Format("2006-01-02 15:04"),
					cached.Job.JobID,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				left("File").clip(40),
				left("Status"),
				left("Observed"),
				left("Job ID"),
			}, rows))
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove snapshots not refreshed recently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := ctx.jobCache()
			if cache == nil {
				return errCacheDisabled
			}
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			removed, err := cache.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached jobs\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached job and segment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := ctx.jobCache()
			if cache == nil {
				return errCacheDisabled
			}
			if err := cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	}
}
