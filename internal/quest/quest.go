package quest

import "strings"

// Difficulty is how much effort a side quest takes.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// AllDifficulties returns the valid difficulties in canonical order.
func AllDifficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ParseDifficulty maps free-form generator output to a Difficulty.
// The second return value is false when s is not a known difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.TrimSpace(s)
	for _, d := range AllDifficulties() {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// Source is a link that inspired an idea.
type Source struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Idea is one side quest.
type Idea struct {
	Title      string     `json:"title"`
	Murmur     string     `json:"murmur"`
	Quest      string     `json:"quest"`
	Worth      []string   `json:"worth"`
	Difficulty Difficulty `json:"difficulty"`
	Sources    []Source   `json:"sources,omitempty"`
}

// Key returns the idea's title key.
func (i Idea) Key() string {
	return NormalizeTitleKey(i.Title)
}

// WithDifficulty returns a copy of i with the difficulty replaced.
func (i Idea) WithDifficulty(d Difficulty) Idea {
	out := i.clone()
	out.Difficulty = d
	return out
}

// WithSources returns a copy of i with the sources replaced.
func (i Idea) WithSources(sources []Source) Idea {
	out := i.clone()
	out.Sources = append([]Source(nil), sources...)
	return out
}

func (i Idea) clone() Idea {
	out := i
	if i.Worth != nil {
		out.Worth = append([]string(nil), i.Worth...)
	}
	if i.Sources != nil {
		out.Sources = append([]Source(nil), i.Sources...)
	}
	return out
}

// Keys returns the title key of every idea in batch, in order.
func Keys(batch []Idea) []string {
	keys := make([]string, len(batch))
	for i, idea := range batch {
		keys[i] = idea.Key()
	}
	return keys
}
