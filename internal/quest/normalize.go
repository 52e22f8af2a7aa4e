package quest

import (
	"fmt"
	"strings"
)

// HardCapCutoff is the first date on which a batch may hold at most one Hard idea.
const HardCapCutoff = "2025-02-21"

// MaxWorth is the most "why it's worth it" lines an idea keeps.
const MaxWorth = 3

const (
	placeholderMurmur = "A small idea that keeps nagging at you."
	placeholderQuest  = "Build the smallest version that proves the idea works, then show it to one person."
	placeholderWorth  = "It turns a passing thought into something you can share."
)

// HardCapApplies reports whether the one-Hard-per-batch rule is in force for date.
// date is an ISO YYYY-MM-DD string; comparison is lexical.
func HardCapApplies(date string) bool {
	return date >= HardCapCutoff
}

// NormalizeForDate rewrites jargon, caps difficulty and fills missing fields for a
// batch generated for date. The result has the same length and order as ideas, and
// ideas itself is left untouched.
func NormalizeForDate(ideas []Idea, date string) []Idea {
	out := make([]Idea, len(ideas))
	for i, idea := range ideas {
		n := rewriteIdea(idea)
		if n.Difficulty == Hard && IsTooTechnical(n.Title, n.Murmur, n.Quest) {
			n = n.WithDifficulty(Medium)
		}
		out[i] = backfill(n, i)
	}
	return CapHard(out, date)
}

// CapHard enforces the one-Hard-per-batch rule for date: scanning in order, the
// first Hard idea keeps its rating and every later one becomes Medium. Batches for
// dates before HardCapCutoff are returned as a copy, unchanged.
func CapHard(ideas []Idea, date string) []Idea {
	out := make([]Idea, len(ideas))
	if !HardCapApplies(date) {
		copy(out, ideas)
		return out
	}
	hardSeen := 0
	for i, idea := range ideas {
		if idea.Difficulty == Hard {
			if hardSeen > 0 {
				idea = idea.WithDifficulty(Medium)
			}
			hardSeen++
		}
		out[i] = idea
	}
	return out
}

func rewriteIdea(idea Idea) Idea {
	n := idea.clone()
	n.Title = strings.TrimSpace(RewriteJargon(idea.Title))
	n.Murmur = strings.TrimSpace(RewriteJargon(idea.Murmur))
	n.Quest = strings.TrimSpace(RewriteJargon(idea.Quest))
	if d, ok := ParseDifficulty(string(idea.Difficulty)); ok {
		n.Difficulty = d
	} else {
		n.Difficulty = ""
	}
	return n
}

func backfill(idea Idea, index int) Idea {
	if idea.Title == "" {
		idea.Title = fmt.Sprintf("Side Quest %d", index+1)
	}
	if idea.Murmur == "" {
		idea.Murmur = placeholderMurmur
	}
	if idea.Quest == "" {
		idea.Quest = placeholderQuest
	}
	idea.Worth = cleanWorth(idea.Worth)
	if idea.Difficulty == "" {
		idea.Difficulty = Medium
	}
	return idea
}

func cleanWorth(worth []string) []string {
	out := make([]string, 0, MaxWorth)
	for _, w := range worth {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		out = append(out, w)
		if len(out) == MaxWorth {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, placeholderWorth)
	}
	return out
}
