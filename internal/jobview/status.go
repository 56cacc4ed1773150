package jobview

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"bookscore/internal/jobsapi"
)

// DisplayStatus upper-cases the first character and leaves the rest untouched.
func DisplayStatus(status string) string {
	if status == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(status)
	if r == utf8.RuneError {
		return status
	}
	return string(unicode.ToUpper(r)) + status[size:]
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsTerminal reports whether status is completed or failed.
func IsTerminal(status string) bool {
	switch normalizeStatus(status) {
	case jobsapi.StatusCompleted, jobsapi.StatusFailed:
		return true
	default:
		return false
	}
}

// IsCompleted reports whether status is completed.
func IsCompleted(status string) bool {
	return normalizeStatus(status) == jobsapi.StatusCompleted
}

// ShowLiveIndicator is true while the job may still change.
func ShowLiveIndicator(status string) bool {
	return !IsTerminal(status)
}

// ProgressBarVisible is true while the job is non-terminal.
func ProgressBarVisible(status string) bool {
	return !IsTerminal(status)
}

// ListProgressVisible decides the progress column in the jobs table, where
// only completed jobs hide their bar.
func ListProgressVisible(status string) bool {
	return !IsCompleted(status)
}

// SegmentsAvailable reports whether the backend can have produced segments,
// which happens once transcription has finished.
func SegmentsAvailable(status string) bool {
	switch normalizeStatus(status) {
	case jobsapi.StatusAnalyzing, jobsapi.StatusComposing, jobsapi.StatusMixing, jobsapi.StatusCompleted:
		return true
	default:
		return false
	}
}

// ProgressWidth clamps progress into 0..100 and rounds it for bar rendering.
func ProgressWidth(progress float64) int {
	if math.IsNaN(progress) || progress <= 0 {
		return 0
	}
	if progress >= 100 {
		return 100
	}
	return int(math.Round(progress))
}
