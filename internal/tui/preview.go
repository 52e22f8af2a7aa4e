package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

func renderPreview(idea *quest.Idea, width, height, scroll int) string {
	if idea == nil {
		return lipglossCenter("Select a quest", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	parts := []string{
		previewTitleStyle.Width(contentWidth).Render(idea.Title),
		difficultyStyle(idea.Difficulty).Render(string(idea.Difficulty)),
		"",
	}
	if idea.Murmur != "" {
		parts = append(parts, previewMurmurStyle.Width(contentWidth).Render(wrapText(idea.Murmur, contentWidth)), "")
	}

	parts = append(parts,
		previewLabelStyle.Render("The quest"),
		previewBodyStyle.Width(contentWidth).Render(wrapText(idea.Quest, contentWidth)),
		"",
	)

	if len(idea.Worth) > 0 {
		parts = append(parts, previewLabelStyle.Render("Why it's worth it"))
		for _, w := range idea.Worth {
			parts = append(parts, previewBodyStyle.Width(contentWidth).Render(wrapText("• "+w, contentWidth)))
		}
		parts = append(parts, "")
	}

	if len(idea.Sources) > 0 {
		parts = append(parts, previewLabelStyle.Render("Sources"))
		for i, src := range idea.Sources {
			line := fmt.Sprintf("%d. %s: %s", i+1, src.Name, src.URL)
			parts = append(parts, previewLinkStyle.Width(contentWidth).Render(truncateStr(line, contentWidth)))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
