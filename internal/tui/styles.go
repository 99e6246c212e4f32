package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// styles groups the lipgloss styles used by the browser.
type styles struct {
	title    lipgloss.Style
	border   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	help     lipgloss.Style
	status   lipgloss.Style
	errorMsg lipgloss.Style
	flaky    lipgloss.Style

	severity map[models.Severity]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),

		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),

		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green

		errorMsg: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red

		flaky: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange

		severity: map[models.Severity]lipgloss.Style{
			models.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			models.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
			models.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			models.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		},
	}
}

func (s styles) forSeverity(sev models.Severity) lipgloss.Style {
	if st, ok := s.severity[sev]; ok {
		return st
	}
	return s.value
}
