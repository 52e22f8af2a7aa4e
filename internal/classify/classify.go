package classify

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Theme is the broad flavour of an inspiration signal or a quest.
type Theme string

const (
	AI           Theme = "AI"
	Crypto       Theme = "Crypto"
	Creative     Theme = "Creative"
	DevTools     Theme = "Dev Tools"
	Productivity Theme = "Productivity"
	Social       Theme = "Social"
	Play         Theme = "Play"
)

// AllThemes returns all valid themes in canonical order.
func AllThemes() []Theme {
	return []Theme{AI, Crypto, Creative, DevTools, Productivity, Social, Play}
}

var themeKeywords = map[Theme][]string{
	AI: {
		"ai", "llm", "gpt", "chatbot", "prompt", "agent", "model", "embedding",
		"machine learning", "neural", "openai", "claude", "gemini", "copilot",
	},
	Crypto: {
		"crypto", "wallet", "token", "nft", "onchain", "ethereum", "bitcoin",
		"solana", "defi", "dao", "gas fee", "blockchain", "farcaster",
	},
	Creative: {
		"music", "art", "drawing", "poem", "poetry", "writing", "story",
		"photo", "video", "design", "font", "color", "playlist", "generative",
	},
	DevTools: {
		"developer", "cli", "terminal", "git", "commit", "github", "api",
		"debug", "editor", "vscode", "pull request", "code review", "deploy",
	},
	Productivity: {
		"todo", "calendar", "notes", "habit", "reminder", "inbox", "email",
		"schedule", "focus", "timer", "journal", "budget", "automate",
	},
	Social: {
		"friends", "community", "group", "chat", "share", "social", "twitter",
		"discord", "slack", "meetup", "neighbors", "family",
	},
	Play: {
		"game", "puzzle", "toy", "quiz", "trivia", "fun", "silly", "meme",
		"pet", "emoji", "bingo", "random",
	},
}

// Aliases maps short CLI flags to full theme names.
var Aliases = map[string]Theme{
	"ai":       AI,
	"crypto":   Crypto,
	"web3":     Crypto,
	"creative": Creative,
	"dev":      DevTools,
	"tools":    DevTools,
	"prod":     Productivity,
	"social":   Social,
	"play":     Play,
	"fun":      Play,
}

// ResolveAlias maps a CLI alias or full theme name to a Theme.
func ResolveAlias(alias string) (Theme, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if th, ok := Aliases[alias]; ok {
		return th, nil
	}
	for _, th := range AllThemes() {
		if strings.EqualFold(string(th), alias) {
			return th, nil
		}
	}
	valid := make([]string, 0, len(Aliases))
	for k := range Aliases {
		valid = append(valid, k)
	}
	sort.Strings(valid)
	return "", fmt.Errorf("unknown theme %q (valid: %s)", alias, strings.Join(valid, ", "))
}

// Classify picks the theme for a piece of text. Title keywords are weighted 2x.
// Returns Play when nothing matches.
func Classify(title, description string) Theme {
	titleTokens := tokenize(title)
	descTokens := tokenize(description)
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	var best Theme
	bestScore := 0

	for _, th := range AllThemes() {
		score := 0
		for _, kw := range themeKeywords[th] {
			if !strings.Contains(kw, " ") {
				score += 2*count(titleTokens, kw) + count(descTokens, kw)
				continue
			}
			if strings.Contains(titleLower, kw) {
				score += 2
			}
			if strings.Contains(descLower, kw) {
				score++
			}
		}
		// AllThemes order breaks ties.
		if score > bestScore {
			bestScore = score
			best = th
		}
	}

	if bestScore == 0 {
		return Play
	}
	return best
}

// count matches whole tokens, plus simple plurals.
func count(tokens []string, kw string) int {
	n := 0
	for _, t := range tokens {
		if t == kw || t == kw+"s" {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
