package cli

import (
	"prompt-matrix/internal/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	pendingColor   = lipgloss.Color("#5FAFD7") // light blue
	runningColor   = lipgloss.Color("#FFAF00") // amber
	completedColor = lipgloss.Color("#00D787") // green
	failedColor    = lipgloss.Color("#FF005F") // red
	hintColor      = lipgloss.Color("#6C6C6C") // dim gray

	hintStyle    = lipgloss.NewStyle().Foreground(hintColor).Italic(true)
	successStyle = lipgloss.NewStyle().Foreground(completedColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(failedColor).Bold(true)
)

// statusStyle colors a job status for the queue listing
func statusStyle(s models.JobStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Width(9)
	switch s {
	case models.StatusPending:
		return base.Foreground(pendingColor)
	case models.StatusRunning:
		return base.Foreground(runningColor).Bold(true)
	case models.StatusCompleted:
		return base.Foreground(completedColor)
	case models.StatusFailed:
		return base.Foreground(failedColor).Bold(true)
	default:
		return base.Foreground(hintColor).Strikethrough(true)
	}
}
