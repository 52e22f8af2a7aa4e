package tui

import (
	"fmt"
	"strings"

	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

func renderListItem(idea quest.Idea, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(idea.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(idea.Title, width-4))
	}

	meta := "  " + difficultyStyle(idea.Difficulty).Render(string(idea.Difficulty))
	if n := len(idea.Sources); n > 0 {
		meta += itemMetaStyle.Render(" · " + plural(n, "source"))
	}

	return title + "\n" + meta
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(ideas []quest.Idea, cursor int, height int, width int) string {
	if len(ideas) == 0 {
		return lipglossCenter("No quests match", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(ideas) {
		end = len(ideas)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(ideas[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
