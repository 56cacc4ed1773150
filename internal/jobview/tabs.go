package jobview

import (
	"fmt"
	"strings"
)

// Tab is a section of the job detail view.
type Tab string

const (
	TabTranscription Tab = "transcription"
	TabSegments      Tab = "segments"
	TabResults       Tab = "results"
)

// DefaultTab is shown until the job completes or the user picks one.
const DefaultTab = TabTranscription

// Tabs lists the detail tabs in display order.
func Tabs() []Tab {
	return []Tab{TabTranscription, TabSegments, TabResults}
}

// ParseTab accepts a tab name case-insensitively.
func ParseTab(value string) (Tab, error) {
	tab := Tab(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Tabs() {
		if tab == known {
			return tab, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q (want transcription, segments or results)", value)
}

// TabSelector tracks the active detail tab across refreshes.
//
// The first time a job is observed as completed after a non-completed status
// (or on the first observation, when nothing was chosen yet) the selector
// moves to TabResults. That automatic move happens at most once, and never
// after the user has chosen a tab. TabSelector is not safe for concurrent use.
type TabSelector struct {
	current    Tab
	manual     bool
	autoDone   bool
	lastStatus string
	observed   bool
}

// NewTabSelector starts on DefaultTab.
func NewTabSelector() *TabSelector {
	return &TabSelector{current: DefaultTab}
}

// Current returns the active tab.
func (s *TabSelector) Current() Tab {
	return s.current
}

// Choose records a manual selection, which always wins over the automatic switch.
func (s *TabSelector) Choose(tab Tab) {
	s.current = tab
	s.manual = true
}

// Observe feeds the latest job status and returns the tab to render.
func (s *TabSelector) Observe(status string) Tab {
	completedNow := IsCompleted(status)
	transition := completedNow && (!s.observed || !IsCompleted(s.lastStatus))
	if transition && !s.manual && !s.autoDone && s.current != TabResults {
		s.current = TabResults
		s.autoDone = true
	}
	if completedNow {
		s.autoDone = true
	}
	s.lastStatus = status
	s.observed = true
	return s.current
}
