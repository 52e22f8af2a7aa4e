package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var asciiLogo = []string{
	`┌─┐┬┌┬┐┌─┐  ┌─┐ ┬ ┬┌─┐┌─┐┌┬┐┌─┐`,
	`└─┐│ ││├┤   │─┼┐│ │├┤ └─┐ │ └─┐`,
	`└─┘┴─┴┘└─┘  └─┘└└─┘└─┘└─┘ ┴ └─┘`,
}

// renderEmptyDay is shown when date has no stored batch.
func renderEmptyDay(width, height int, date string, err error) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(colorText)
	dimStyle := lipgloss.NewStyle().Foreground(colorDim)

	var lines []string
	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "", "")

	if err != nil {
		lines = append(lines, labelStyle.Render("Could not load "+date+": "+err.Error()))
	} else {
		lines = append(lines, labelStyle.Render("No quests for "+date+" yet."))
		lines = append(lines, dimStyle.Render("Run: sidequest generate --date "+date))
	}
	lines = append(lines, "")
	lines = append(lines, keyStyle.Render("[")+"  "+labelStyle.Render("Previous day"))
	lines = append(lines, keyStyle.Render("]")+"  "+labelStyle.Render("Next day"))
	lines = append(lines, keyStyle.Render("q")+"  "+labelStyle.Render("Quit"))

	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1

	topPad := (height - contentHeight) / 3
	if topPad < 0 {
		topPad = 0
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}
