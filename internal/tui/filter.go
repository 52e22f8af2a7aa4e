package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

type filterBar struct {
	difficulties []quest.Difficulty
	active       map[quest.Difficulty]bool
	filterMode   bool
	filterCursor int
}

func newFilterBar() filterBar {
	return filterBar{
		difficulties: quest.AllDifficulties(),
		active:       make(map[quest.Difficulty]bool),
	}
}

func (f *filterBar) toggle(d quest.Difficulty) {
	if f.active[d] {
		delete(f.active, d)
	} else {
		f.active[d] = true
	}
}

func (f *filterBar) toggleCurrent() {
	if f.filterCursor < len(f.difficulties) {
		f.toggle(f.difficulties[f.filterCursor])
	}
}

// allows reports whether an idea of difficulty d passes. No selection means all.
func (f *filterBar) allows(d quest.Difficulty) bool {
	return len(f.active) == 0 || f.active[d]
}

func (f *filterBar) activeLabel() string {
	if len(f.active) == 0 {
		return "All"
	}
	var names []string
	for _, d := range f.difficulties {
		if f.active[d] {
			names = append(names, string(d))
		}
	}
	return strings.Join(names, ", ")
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	if len(f.active) == 0 {
		parts = append(parts, tabActiveStyle.Render("All"))
	} else {
		parts = append(parts, tabInactiveStyle.Render("All"))
	}

	for i, d := range f.difficulties {
		style := tabInactiveStyle
		if f.active[d] {
			style = tabActiveStyle
		}
		label := string(d)
		if f.filterMode && i == f.filterCursor {
			label = "[" + label + "]"
		}
		parts = append(parts, style.Render(label))
	}

	row := strings.Join(parts, sep)
	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

// filterIdeas keeps ideas whose difficulty passes f and whose title or quest
// contains search, case-insensitively.
func filterIdeas(ideas []quest.Idea, f *filterBar, search string) []quest.Idea {
	search = strings.ToLower(strings.TrimSpace(search))
	var out []quest.Idea
	for _, idea := range ideas {
		if !f.allows(idea.Difficulty) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(idea.Title), search) &&
			!strings.Contains(strings.ToLower(idea.Quest), search) {
			continue
		}
		out = append(out, idea)
	}
	return out
}
