package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D97706"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
)

// renderGrid draws a bordered table. Columns listed in numeric are right
// aligned.
func renderGrid(header []string, rows [][]string, numeric map[int]bool) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numStyle
			default:
				return cellStyle
			}
		}).
		Render()
}
