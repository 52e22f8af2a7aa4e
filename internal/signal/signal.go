package signal

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Kinds of inspiration signal.
const (
	KindRSS    = "rss"
	KindGitHub = "github"
)

// Signal is one piece of inspiration: a post, a thread or an issue where someone
// wished a small tool existed.
type Signal struct {
	ID          string
	Kind        string
	Source      string
	Title       string
	Description string
	URL         string
	Published   time.Time
	Reactions   int
	Score       float64
	Category    string
}

// IDFor derives a stable signal ID from its link.
func IDFor(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

// SourceWeights maps source names to their weight (0.0–1.0).
type SourceWeights map[string]float64

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Recency      float64
	SourceWeight float64
	Depth        float64
	Murmur       float64
	Engagement   float64
	Final        float64
}

const (
	weightRecency    = 0.25
	weightSource     = 0.20
	weightDepth      = 0.15
	weightMurmur     = 0.25
	weightEngagement = 0.15
)

// Score computes a signal score (0.0–10.0).
func Score(s Signal, weights SourceWeights) float64 {
	return ScoreWithBreakdown(s, weights).Final
}

// ScoreWithBreakdown computes a signal score with component details.
func ScoreWithBreakdown(s Signal, weights SourceWeights) Breakdown {
	b := Breakdown{
		Recency:      recencyScore(s.Published),
		SourceWeight: sourceScore(s.Source, weights),
		Depth:        depthScore(s.Description),
		Murmur:       murmurScore(s.Title, s.Description),
		Engagement:   engagementScore(s.Reactions),
	}
	raw := b.Recency*weightRecency +
		b.SourceWeight*weightSource +
		b.Depth*weightDepth +
		b.Murmur*weightMurmur +
		b.Engagement*weightEngagement
	b.Final = math.Round(raw*100) / 10 // scale to 0.0–10.0
	return b
}

// Rank scores every signal and returns the best n, highest first. Ties break on
// title so the selection is stable across runs.
func Rank(signals []Signal, weights SourceWeights, n int) []Signal {
	scored := make([]Signal, len(signals))
	copy(scored, signals)
	for i := range scored {
		scored[i].Score = Score(scored[i], weights)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Title < scored[j].Title
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// recencyScore returns exponential decay: 1.0 at publish, ~0.5 at 24h, ~0.1 at 72h.
func recencyScore(published time.Time) float64 {
	if published.IsZero() {
		return 0.0
	}
	hours := time.Since(published).Hours()
	if hours < 0 {
		hours = 0
	}
	// decay constant: ln(0.5)/24 ≈ -0.02888
	return math.Exp(-0.02888 * hours)
}

// sourceScore looks up the source weight, defaulting to 0.5.
func sourceScore(source string, weights SourceWeights) float64 {
	if weights == nil {
		return 0.5
	}
	if w, ok := weights[source]; ok {
		return w
	}
	return 0.5
}

// depthScore scores based on description word count.
func depthScore(description string) float64 {
	words := len(strings.Fields(description))
	switch {
	case words >= 150:
		return 1.0
	case words >= 50:
		return 0.6
	default:
		return 0.2
	}
}

// engagementScore saturates at 50 reactions.
func engagementScore(reactions int) float64 {
	if reactions <= 0 {
		return 0
	}
	return math.Min(1.0, math.Log1p(float64(reactions))/math.Log1p(50))
}

// murmurWords mark someone wishing out loud for something small to exist.
var murmurWords = map[string]bool{
	"wish": true, "wishlist": true, "annoying": true, "frustrating": true,
	"tedious": true, "manual": true, "manually": true, "hack": true,
	"weekend": true, "side": true, "tool": true, "tiny": true, "simple": true,
	"automate": true, "idea": true, "ideas": true, "someone": true,
	"missing": true, "nobody": true, "toy": true, "playful": true,
	"help": true, "wanted": true, "request": true, "feature": true,
	"prototype": true, "experiment": true, "fun": true, "builder": true,
}

// murmurScore returns the density of wish-like words (0.0–1.0).
func murmurScore(title, description string) float64 {
	text := strings.ToLower(title + " " + description)
	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return 0.0
	}

	hits := 0
	for _, w := range words {
		if murmurWords[w] {
			hits++
		}
	}
	density := float64(hits) / float64(len(words))
	// Normalize: 10%+ density = 1.0
	score := density * 10
	if score > 1.0 {
		score = 1.0
	}
	return score
}
