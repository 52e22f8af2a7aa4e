// Package inspiration picks the day's signals and ties finished quests back to them.
package inspiration

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/SBrookhart/side-quest-generator/internal/browser"
	"github.com/SBrookhart/side-quest-generator/internal/classify"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

// Digest is what went into a day's prompt.
type Digest struct {
	Scanned  int
	Selected []signal.Signal
	Themes   []string
	Sources  string
}

// SelectOpts tunes Select.
type SelectOpts struct {
	Limit         int
	Focus         classify.Theme
	SourceWeights map[string]float64
}

// Select scores, classifies and picks the top signals. No single theme may take
// more than half the slots unless there is nothing else to pick. A focus theme
// narrows the pool when it has enough signals.
func Select(signals []signal.Signal, opts SelectOpts) Digest {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	ranked := signal.Rank(signals, opts.SourceWeights, 0)
	for i := range ranked {
		ranked[i].Category = string(classify.Classify(ranked[i].Title, ranked[i].Description))
	}

	if opts.Focus != "" {
		var focused []signal.Signal
		for _, s := range ranked {
			if s.Category == string(opts.Focus) {
				focused = append(focused, s)
			}
		}
		if len(focused) >= opts.Limit {
			ranked = focused
		}
	}

	d := Digest{Scanned: len(signals)}
	d.Selected = diversify(ranked, opts.Limit)
	d.Themes = themes(d.Selected, ranked)
	d.Sources = activeSources(d.Selected)
	return d
}

func diversify(ranked []signal.Signal, limit int) []signal.Signal {
	perTheme := limit / 2
	if perTheme < 1 {
		perTheme = 1
	}
	counts := map[string]int{}
	picked := make([]bool, len(ranked))
	var out []signal.Signal

	for i, s := range ranked {
		if len(out) >= limit {
			break
		}
		if counts[s.Category] >= perTheme {
			continue
		}
		counts[s.Category]++
		picked[i] = true
		out = append(out, s)
	}
	// Fill from whatever is left when themes ran dry.
	for i, s := range ranked {
		if len(out) >= limit {
			break
		}
		if !picked[i] {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// AttachSources links each idea to up to limit signals that share words with it.
// The choice is deterministic: most shared words first, then higher score, then title.
func AttachSources(ideas []quest.Idea, signals []signal.Signal, limit int) []quest.Idea {
	if limit <= 0 {
		limit = 2
	}
	out := make([]quest.Idea, len(ideas))
	for i, idea := range ideas {
		words := wordSet(idea.Title + " " + idea.Murmur + " " + idea.Quest)

		type match struct {
			s       signal.Signal
			overlap int
		}
		var matches []match
		for _, s := range signals {
			if browser.Validate(s.URL) != nil {
				continue
			}
			n := 0
			for w := range wordSet(s.Title + " " + s.Description) {
				if words[w] {
					n++
				}
			}
			if n > 0 {
				matches = append(matches, match{s, n})
			}
		}
		sort.SliceStable(matches, func(a, b int) bool {
			if matches[a].overlap != matches[b].overlap {
				return matches[a].overlap > matches[b].overlap
			}
			if matches[a].s.Score != matches[b].s.Score {
				return matches[a].s.Score > matches[b].s.Score
			}
			return matches[a].s.Title < matches[b].s.Title
		})

		var sources []quest.Source
		seen := map[string]bool{}
		for _, m := range matches {
			if len(sources) >= limit {
				break
			}
			if seen[m.s.URL] {
				continue
			}
			seen[m.s.URL] = true
			sources = append(sources, quest.Source{Type: m.s.Kind, Name: m.s.Source, URL: m.s.URL})
		}
		out[i] = idea.WithSources(sources)
	}
	return out
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range tokenize(s) {
		set[w] = true
	}
	return set
}

func activeSources(signals []signal.Signal) string {
	counts := map[string]int{}
	for _, s := range signals {
		counts[s.Source]++
	}

	type sc struct {
		name  string
		count int
	}
	var sorted []sc
	for name, count := range counts {
		sorted = append(sorted, sc{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	limit := min(3, len(sorted))
	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = fmt.Sprintf("%s (%d)", sorted[i].name, sorted[i].count)
	}
	return strings.Join(parts, ", ")
}

// themes extracts top keywords from selected titles using TF-IDF against the pool.
func themes(selected, pool []signal.Signal) []string {
	df := map[string]int{}
	for _, s := range pool {
		for w := range wordSet(s.Title) {
			df[w]++
		}
	}

	tf := map[string]int{}
	for _, s := range selected {
		for _, w := range tokenize(s.Title) {
			tf[w]++
		}
	}

	totalDocs := max(len(pool), 1)

	type scored struct {
		term  string
		score float64
	}
	var terms []scored
	for term, freq := range tf {
		if freq < 2 {
			continue
		}
		docFreq := max(df[term], 1)
		idf := math.Log(float64(totalDocs)/float64(docFreq)) + 1
		terms = append(terms, scored{term, float64(freq) * idf})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].score != terms[j].score {
			return terms[i].score > terms[j].score
		}
		return terms[i].term < terms[j].term
	})

	limit := min(3, len(terms))
	out := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, terms[i].term)
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "it": true, "its": true,
	"this": true, "that": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "not": true, "no": true,
	"how": true, "what": true, "when": true, "where": true, "who": true, "which": true,
	"why": true, "all": true, "each": true, "every": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "than": true, "too": true, "very": true,
	"just": true, "about": true, "into": true, "over": true, "after": true, "before": true,
	"out": true, "up": true, "our": true, "your": true, "we": true, "you": true,
	"they": true, "them": true, "their": true, "new": true, "use": true, "using": true,
	"used": true, "make": true, "build": true, "there": true, "someone": true,
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) < 4 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
