package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"bookscore/internal/jobview"
)

// moodSwatch renders a coloured block for a timeline row followed by its
// mood. Without colour the hsl() value is printed instead.
func moodSwatch(row jobview.SegmentRow, colorize bool) string {
	mood := row.Mood
	if mood == "" {
		mood = "unknown"
	}
	if !colorize {
		return fmt.Sprintf("%s (%s)", mood, row.Color)
	}
	block := lipgloss.NewStyle().
		Background(lipgloss.Color(row.Hex)).
		Render("   ")
	return block + " " + mood
}

// selectedMarker highlights the selected timeline row.
func selectedMarker(selected, colorize bool) string {
	if !selected {
		return ""
	}
	if !colorize {
		return ">"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Render("▶")
}
