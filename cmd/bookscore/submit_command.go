package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bookscore/internal/config"
	"bookscore/internal/jobview"
	"bookscore/internal/store"
	"bookscore/internal/wizard"
)

type submitOptions struct {
	title       string
	author      string
	year        int
	description string
	genres      []string
	style       string
	noMix       bool
	watch       bool
	jsonOutput  bool
}

type submitResultJSON struct {
	JobID   string          `json:"jobId"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Draft   store.BookState `json:"draft"`
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit <audiobook-file>",
		Short: "Upload an audiobook and create a scoring job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			file, err := wizard.OpenLocalFile(path)
			if err != nil {
				return err
			}

			style := strings.ToLower(strings.TrimSpace(opts.style))
			if style == "" {
				style = cfg.Wizard.StylePreset
			}
			st := store.New()
			wiz := wizard.New(client, st, wizard.Options{
				StylePreset:      style,
				MixWithAudiobook: cfg.Wizard.MixWithAudiobook && !opts.noMix,
				Logger:           ctx.log(),
			})
			if err := wiz.ChooseFile(file); err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "Uploading %s (%s, %s)...\n", file.Name(), humanize.Bytes(uint64(file.Size())), file.Type())
			if _, err := wiz.Upload(cmd.Context()); err != nil {
				return err
			}
			if err := applyDraftEdits(wiz, opts); err != nil {
				return err
			}

			fmt.Fprintln(errOut, "Creating scoring job...")
			resp, err := wiz.Submit(cmd.Context())
			if err != nil {
				return err
			}

			if opts.jsonOutput && !opts.watch {
				return writeJSON(cmd, submitResultJSON{
					JobID:   resp.JobID,
					Status:  resp.Status,
					Message: resp.Message,
					Draft:   st.GetState().Book,
				})
			}

			out := cmd.OutOrStdout()
			status := resp.Status
			if status == "" {
				status = "queued"
			}
			fmt.Fprintf(out, "Job created: %s (%s)\n", resp.JobID, jobview.DisplayStatus(status))
			if !opts.watch {
				fmt.Fprintf(out, "Track it with: bookscore jobs show %s --watch\n", resp.JobID)
				return nil
			}
			return watchJobDetail(cmd, ctx, client, resp.JobID, store.New(), jobview.NewTabSelector(), opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Book title")
	cmd.Flags().StringVar(&opts.author, "author", "", "Book author")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Publication year")
	cmd.Flags().StringVar(&opts.description, "description", "", "Short description")
	cmd.Flags().StringSliceVar(&opts.genres, "genre", nil, "Genre tag (repeatable or comma separated)")
	cmd.Flags().StringVar(&opts.style, "style", "", "Style preset (defaults to wizard.style_preset)")
	cmd.Flags().BoolVar(&opts.noMix, "no-mix", false, "Produce music only, without mixing the narration back in")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Watch the job after submitting")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func applyDraftEdits(wiz *wizard.Wizard, opts submitOptions) error {
	if opts.title != "" {
		if err := wiz.SetTitle(opts.title); err != nil {
			return err
		}
	}
	if opts.author != "" {
		if err := wiz.SetAuthor(opts.author); err != nil {
			return err
		}
	}
	if opts.year != 0 {
		if err := wiz.SetYear(opts.year); err != nil {
			return err
		}
	}
	if opts.description != "" {
		if err := wiz.SetDescription(opts.description); err != nil {
			return err
		}
	}
	for _, genre := range opts.genres {
		if err := wiz.AddGenre(genre); err != nil {
			return err
		}
	}
	return nil
}
