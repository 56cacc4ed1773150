package jobview

import (
	"fmt"
	"math"
	"strings"

	"bookscore/internal/jobsapi"
)

// TranscriptLine is one timestamped paragraph of the transcription tab.
type TranscriptLine struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Transcript concatenates segment text in segment order, skipping blank text.
func Transcript(segments []jobsapi.Segment) []TranscriptLine {
	lines := make([]TranscriptLine, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, TranscriptLine{
			Start: FormatTimestamp(seg.Start),
			End:   FormatTimestamp(seg.End),
			Text:  text,
		})
	}
	return lines
}

// FormatTimestamp renders seconds as m:ss, or h:mm:ss past the hour.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// SegmentRow is one line of the segment timeline.
type SegmentRow struct {
	Index     int     `json:"index"`
	SegmentID string  `json:"segmentId"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Duration  float64 `json:"duration"`
	Mood      string  `json:"mood"`
	Intensity float64 `json:"intensity"`
	Color     string  `json:"color"`
	Hex       string  `json:"hex"`
	Selected  bool    `json:"selected"`
}

// SegmentTimeline builds timeline rows; selected is the index of the
// highlighted segment, or -1.
func SegmentTimeline(segments []jobsapi.Segment, selected int) []SegmentRow {
	rows := make([]SegmentRow, 0, len(segments))
	for i, seg := range segments {
		color := MoodColor(seg.Mood, seg.Intensity)
		duration := seg.Duration
		if duration == 0 && seg.End > seg.Start {
			duration = seg.End - seg.Start
		}
		rows = append(rows, SegmentRow{
			Index:     i,
			SegmentID: seg.SegmentID,
			Start:     FormatTimestamp(seg.Start),
			End:       FormatTimestamp(seg.End),
			Duration:  duration,
			Mood:      seg.Mood,
			Intensity: seg.Intensity,
			Color:     color.String(),
			Hex:       color.Hex(),
			Selected:  i == selected,
		})
	}
	return rows
}

// ClampSegmentIndex keeps a selected index inside segments, returning -1 when
// there is nothing to select.
func ClampSegmentIndex(index, count int) int {
	switch {
	case count <= 0:
		return -1
	case index < 0:
		return 0
	case index >= count:
		return count - 1
	default:
		return index
	}
}
