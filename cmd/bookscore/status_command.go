package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bookscore/internal/logging"
	"bookscore/internal/preflight"
)

var errChecksFailed = errors.New("one or more checks failed")

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the backend, local directories and cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var lister preflight.JobLister
			if client, err := ctx.apiClient(); err == nil {
				lister = client
			} else {
				ctx.log().Warn("api client unavailable for status check", logging.Error(err))
			}
			results := preflight.RunAll(cmd.Context(), cfg, lister)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("bookscore status", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderField("Config", ctx.configPath))
				for _, result := range results {
					fmt.Fprintln(out, renderStatusLine(result.Name, preflightKind(result), result.Detail, colorize))
				}
			}
			if preflight.Failed(results) {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func preflightKind(result preflight.Result) statusKind {
	switch {
	case result.Skipped:
		return statusInfo
	case result.Passed:
		return statusOK
	default:
		return statusError
	}
}
