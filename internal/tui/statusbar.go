package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(shown, total int, filterLabel string, width int, searching, loading bool) string {
	countStyle := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	left := " " + countStyle.Render(fmt.Sprintf("%d", shown)) + fmt.Sprintf(" of %d quests", total)
	if filterLabel != "All" {
		left += " · " + filterLabel
	}
	if loading {
		left += " (loading...)"
	}

	right := " [/] day  / search  f filter  o open  ? help  q quit "
	if searching {
		right = " esc cancel  enter search "
	}

	return statusBarStyle.Width(width).Render(spread(left, right, width))
}

func renderBottomBar(hints string, width int) string {
	return statusBarStyle.Width(width).Render(spread("", " "+hints+" ", width))
}

func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + fmt.Sprintf("%*s", gap, "") + right
}
