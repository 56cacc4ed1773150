package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookscore/internal/stubserver"
)

func newDevServerCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var stepSeconds int

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory scoring backend for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) == "" {
				bind = cfg.DevServer.Bind
			}
			if stepSeconds > 0 {
				override := *cfg
				override.DevServer.StepSeconds = stepSeconds
				cfg = &override
			}
			srv := stubserver.NewFromConfig(cfg, ctx.log())

			runCtx, stop := interruptContext(cmd.Context())
			defer stop()
			if err := srv.Start(runCtx, bind); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dev backend listening on http://%s (Ctrl-C to stop)\n", srv.Addr())
			fmt.Fprintf(out, "Point api.base_url at it, e.g. BOOKSCORE_API_BASE_URL=http://%s\n", srv.Addr())
			<-runCtx.Done()
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to dev_server.bind)")
	cmd.Flags().IntVar(&stepSeconds, "step-seconds", 0, "Seconds per pipeline stage (defaults to dev_server.step_seconds)")
	return cmd
}
