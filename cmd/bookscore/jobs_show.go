package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bookscore/internal/jobsapi"
	"bookscore/internal/jobview"
	"bookscore/internal/logging"
	"bookscore/internal/notifications"
	"bookscore/internal/poller"
	"bookscore/internal/store"
)

type segmentDetailJSON struct {
	jobview.SegmentRow
	Text        string                     `json:"text"`
	Suggestions jobsapi.MusicalSuggestions `json:"musicalSuggestions"`
}

type jobDetailJSON struct {
	Detail        jobview.DetailView       `json:"detail"`
	Tab           jobview.Tab              `json:"tab"`
	Transcript    []jobview.TranscriptLine `json:"transcript"`
	Segments      []jobview.SegmentRow     `json:"segments"`
	Selected      *segmentDetailJSON       `json:"selectedSegment,omitempty"`
	FromCache     bool                     `json:"segmentsFromCache"`
	SegmentsError string                   `json:"segmentsError,omitempty"`
	Stale         bool                     `json:"stale,omitempty"`
}

// detailScreen is everything needed to render one refresh of the detail view.
type detailScreen struct {
	snap     poller.JobSnapshot
	tab      jobview.Tab
	selected int
	// stale marks a snapshot loaded from the local cache because the backend
	// could not be reached.
	stale string
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var tabFlag string
	var segmentFlag int
	var watch bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job's status, transcript, segments and results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			st := store.New()
			selector := jobview.NewTabSelector()
			if tabFlag != "" {
				tab, err := jobview.ParseTab(tabFlag)
				if err != nil {
					return err
				}
				selector.Choose(tab)
				st.Dispatch(store.SetDetailTab{Tab: tab})
			}
			st.Dispatch(store.SelectSegment{Index: segmentFlag})

			if watch {
				return watchJobDetail(cmd, ctx, client, jobID, st, selector, jsonOutput)
			}

			screen, err := loadJobDetail(cmd.Context(), ctx, client, jobID)
			if err != nil {
				return err
			}
			applyObservation(st, selector, screen.snap)
			screen.tab = st.GetState().Jobs.DetailTab
			screen.selected = st.GetState().Jobs.SelectedSegment
			return printJobDetail(cmd, screen, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&tabFlag, "tab", "", "Detail tab: transcription, segments or results")
	cmd.Flags().IntVar(&segmentFlag, "segment", -1, "Index of the segment to expand in the segments tab")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh until the job finishes or Ctrl-C")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// loadJobDetail fetches one snapshot. When the backend is unreachable the
// last cached snapshot is shown instead, marked stale.
func loadJobDetail(ctx context.Context, cc *commandContext, client *jobsapi.Client, jobID string) (detailScreen, error) {
	snap, err := poller.FetchJob(ctx, client, jobID, poller.JobWatchOptions{
		Cache:  cc.pollCache(),
		Logger: cc.log(),
	})
	if err == nil {
		return detailScreen{snap: snap}, nil
	}
	if jobsapi.Kind(err) != jobsapi.KindNetwork {
		return detailScreen{}, err
	}
	cache := cc.jobCache()
	if cache == nil {
		return detailScreen{}, err
	}
	cached, cacheErr := cache.Job(ctx, jobID)
	if cacheErr != nil || cached == nil {
		return detailScreen{}, err
	}
	screen := detailScreen{
		snap:  poller.JobSnapshot{Job: cached.Job, FetchedAt: cached.ObservedAt},
		stale: fmt.Sprintf("backend unreachable; showing snapshot from %s", cached.ObservedAt.Local().Format("2006-01-02 15:04:05")),
	}
	if segments, ok, _ := cache.CompletedSegments(ctx, jobID); ok {
		screen.snap.Segments = segments
		screen.snap.SegmentsLoaded = true
		screen.snap.SegmentsFromCache = true
	}
	return screen, nil
}

// applyObservation feeds one snapshot into the store. It always dispatches,
// so subscribers re-render on every refresh.
func applyObservation(st *store.Store, selector *jobview.TabSelector, snap poller.JobSnapshot) {
	st.Dispatch(store.ObserveJob{
		Tab:          selector.Observe(snap.Job.Status),
		SegmentCount: len(snap.Segments),
	})
}

func watchJobDetail(cmd *cobra.Command, cc *commandContext, client *jobsapi.Client, jobID string, st *store.Store, selector *jobview.TabSelector, jsonOutput bool) error {
	cfg := cc.configValue()
	runCtx, stop := interruptContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	var writeMu sync.Mutex
	var last poller.JobSnapshot
	var haveSnap bool

	p := poller.New[poller.JobSnapshot](cfg.PollInterval(), cc.log())
	defer p.Close()

	// The screen is derived from store state, so it redraws on every dispatch.
	unsubscribe := st.Subscribe(func(state store.State) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if !haveSnap {
			return
		}
		screen := detailScreen{snap: last, tab: state.Jobs.DetailTab, selected: state.Jobs.SelectedSegment}
		if jsonOutput {
			_ = writeJSONLine(cmd, buildDetailJSON(screen))
			return
		}
		if colorize {
			fmt.Fprint(out, clearScreen)
		}
		fmt.Fprint(out, renderJobDetail(screen, colorize))
		if !jobview.IsTerminal(last.Job.Status) {
			fmt.Fprintf(out, "\nRefreshing every %s. Press Ctrl-C to stop.\n", p.Interval())
		}
	})
	defer unsubscribe()

	// An unknown job never turns up later, so it ends the watch.
	watchCtx, cancelWatch := context.WithCancel(runCtx)
	defer cancelWatch()
	var notFound *jobsapi.NotFoundError

	watch := poller.WatchJob(watchCtx, p, client, jobID, poller.JobWatchOptions{
		Cache:  cc.pollCache(),
		Logger: cc.log(),
		OnUpdate: func(snap poller.JobSnapshot) {
			writeMu.Lock()
			last, haveSnap = snap, true
			writeMu.Unlock()
			applyObservation(st, selector, snap)
		},
		OnError: func(err error) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if errors.As(err, &notFound) {
				cancelWatch()
				return
			}
			fmt.Fprintln(errOut, describeError(err))
		},
	})
	watch.Wait()

	writeMu.Lock()
	missing := notFound
	writeMu.Unlock()
	if missing != nil {
		return missing
	}
	if snap, ok := watch.Last(); ok && watch.Subscription().Terminal() {
		notifyTerminal(cmd.Context(), cc, snap.Job)
	}
	return nil
}

func notifyTerminal(ctx context.Context, cc *commandContext, job jobsapi.Job) {
	event := notifications.EventJobCompleted
	if !jobview.IsCompleted(job.Status) {
		event = notifications.EventJobFailed
	}
	payload := notifications.Payload{
		"jobId":    job.JobID,
		"fileName": job.DisplayFileName(),
		"error":    job.ErrorMessage(),
	}
	if job.Metadata != nil {
		payload["title"] = job.Metadata.Title
	}
	if err := cc.notifier().Publish(ctx, event, payload); err != nil {
		cc.log().Warn("notification failed",
			logging.JobID(job.JobID),
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func printJobDetail(cmd *cobra.Command, screen detailScreen, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, buildDetailJSON(screen))
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderJobDetail(screen, shouldColorize(out)))
	return nil
}

func buildDetailJSON(screen detailScreen) jobDetailJSON {
	snap := screen.snap
	payload := jobDetailJSON{
		Detail:     jobview.DeriveDetail(snap.Job),
		Tab:        screen.tab,
		Transcript: jobview.Transcript(snap.Segments),
		Segments:   jobview.SegmentTimeline(snap.Segments, screen.selected),
		FromCache:  snap.SegmentsFromCache,
		Stale:      screen.stale != "",
	}
	if snap.SegmentsErr != nil {
		payload.SegmentsError = snap.SegmentsErr.Error()
	}
	if screen.selected >= 0 && screen.selected < len(snap.Segments) {
		seg := snap.Segments[screen.selected]
		payload.Selected = &segmentDetailJSON{
			SegmentRow:  payload.Segments[screen.selected],
			Text:        seg.Text,
			Suggestions: seg.MusicalSuggestions,
		}
	}
	return payload
}

func renderJobDetail(screen detailScreen, colorize bool) string {
	snap := screen.snap
	view := jobview.DeriveDetail(snap.Job)
	var lines []string
	lines = append(lines, renderSectionHeader("Job "+view.JobID, colorize)...)
	if screen.stale != "" {
		lines = append(lines, renderStatusLine("Offline", statusWarn, screen.stale, colorize))
	}
	lines = append(lines, renderField("File", view.FileName))
	if book := view.Book; book != nil {
		lines = appendIfSet(lines, "Title", book.Title)
		lines = appendIfSet(lines, "Author", book.Author)
		lines = appendIfSet(lines, "Year", book.Year)
		if len(book.Genres) > 0 {
			lines = append(lines, renderField("Genres", strings.Join(book.Genres, ", ")))
		}
		lines = appendIfSet(lines, "Description", book.Description)
	}

	status := view.DisplayStatus
	if view.ShowLiveIndicator {
		status += " ● Live"
	}
	lines = append(lines, renderStatusLine("Status", jobStatusKind(view.Status), status, colorize))
	if view.ProgressBarVisible {
		lines = append(lines, renderField("Progress", renderProgressBar(view.ProgressWidth)))
	}
	lines = appendIfSet(lines, "Created", view.Created)
	lines = appendIfSet(lines, "Updated", view.Updated)
	if view.Error != "" {
		lines = append(lines, renderStatusLine("Job error", statusError, view.Error, colorize))
	}
	if snap.SegmentsErr != nil {
		lines = append(lines, renderStatusLine("Segments", statusWarn, "could not load segments: "+snap.SegmentsErr.Error(), colorize))
	}

	lines = append(lines, "", renderDetailTabs(screen.tab), "")
	switch screen.tab {
	case jobview.TabSegments:
		lines = append(lines, renderSegmentsTab(snap, screen.selected, colorize)...)
	case jobview.TabResults:
		lines = append(lines, renderResultsTab(view)...)
	default:
		lines = append(lines, renderTranscriptTab(snap)...)
	}
	return strings.Join(lines, "\n") + "\n"
}

func appendIfSet(lines []string, label, value string) []string {
	if strings.TrimSpace(value) == "" {
		return lines
	}
	return append(lines, renderField(label, value))
}

func renderDetailTabs(active jobview.Tab) string {
	parts := make([]string, 0, len(jobview.Tabs()))
	for _, tab := range jobview.Tabs() {
		label := jobview.DisplayStatus(string(tab))
		if tab == active {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return "Tabs: " + strings.Join(parts, " ")
}

func renderTranscriptTab(snap poller.JobSnapshot) []string {
	transcript := jobview.Transcript(snap.Segments)
	if len(transcript) == 0 {
		if !jobview.SegmentsAvailable(snap.Job.Status) && !jobview.IsTerminal(snap.Job.Status) {
			return []string{"Transcription is not available yet."}
		}
		return []string{"No transcript."}
	}
	lines := make([]string, 0, len(transcript))
	for _, line := range transcript {
		lines = append(lines, fmt.Sprintf("[%s - %s] %s", line.Start, line.End, line.Text))
	}
	return lines
}

func renderSegmentsTab(snap poller.JobSnapshot, selected int, colorize bool) []string {
	if len(snap.Segments) == 0 {
		return []string{"No segments yet."}
	}
	rows := jobview.SegmentTimeline(snap.Segments, selected)
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			selectedMarker(row.Selected, colorize),
			fmt.Sprint(row.Index),
			row.Start,
			row.End,
			moodSwatch(row, colorize),
			fmt.Sprintf("%.0f", row.Intensity),
		})
	}
	lines := []string{renderTable([]column{
		left(""),
		right("#"),
		right("Start"),
		right("End"),
		left("Mood"),
		right("Intensity"),
	}, tableRows)}

	if selected < 0 || selected >= len(snap.Segments) {
		lines = append(lines, "", "Use --segment N to expand a segment.")
		return lines
	}
	seg := snap.Segments[selected]
	lines = append(lines, "", fmt.Sprintf("Segment %d (%s - %s)", selected, rows[selected].Start, rows[selected].End))
	if text := strings.TrimSpace(seg.Text); text != "" {
		lines = append(lines, renderField("Text", text))
	}
	lines = append(lines, renderSuggestions(seg.MusicalSuggestions)...)
	return lines
}

func renderSuggestions(s jobsapi.MusicalSuggestions) []string {
	if s.IsEmpty() {
		return []string{renderField("Suggestions", "none")}
	}
	var lines []string
	lines = appendIfSet(lines, "Tempo", s.Tempo)
	lines = appendIfSet(lines, "Instruments", s.Instrumentation)
	lines = appendIfSet(lines, "Dynamics", s.Dynamics)
	lines = appendIfSet(lines, "Genre", s.Genre)
	if len(s.Techniques) > 0 {
		lines = append(lines, renderField("Techniques", strings.Join(s.Techniques, ", ")))
	}
	keys := make([]string, 0, len(s.Extra))
	for key := range s.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, renderField(key, strings.Trim(string(s.Extra[key]), `"`)))
	}
	return lines
}

func renderResultsTab(view jobview.DetailView) []string {
	switch {
	case view.ResultsReady:
		lines := []string{}
		lines = appendIfSet(lines, "Music only", view.Outputs.MusicOnlyURL)
		lines = appendIfSet(lines, "Mixed", view.Outputs.MixedURL)
		if len(lines) == 0 {
			return []string{"The job completed without output files."}
		}
		return lines
	case view.Status != "" && jobview.IsTerminal(view.Status):
		return []string{"The job failed; no soundtrack was produced."}
	default:
		return []string{"Results will be available once the job completes."}
	}
}
