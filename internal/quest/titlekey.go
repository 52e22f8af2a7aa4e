package quest

import (
	"strings"
	"unicode"
)

// NormalizeTitleKey reduces a title to the key used for duplicate detection:
// lowercase ASCII letters and digits separated by single spaces.
// Everything else (punctuation, curly quotes, emoji, accented letters) is dropped.
func NormalizeTitleKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// KeySet is a set of title keys.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from raw titles. Titles whose key is empty are skipped.
func NewKeySet(titles ...string) KeySet {
	s := make(KeySet, len(titles))
	for _, t := range titles {
		s.Add(NormalizeTitleKey(t))
	}
	return s
}

// HistoryKey keys a stored title the way a normalized batch title is keyed, so a
// title containing a rewritten term still collides with itself.
func HistoryKey(title string) string {
	return NormalizeTitleKey(RewriteJargon(title))
}

// NewHistoryKeySet builds a KeySet of HistoryKeys.
func NewHistoryKeySet(titles ...string) KeySet {
	s := make(KeySet, len(titles))
	for _, t := range titles {
		s.Add(HistoryKey(t))
	}
	return s
}

// Add inserts key. Empty keys are ignored.
func (s KeySet) Add(key string) {
	if key != "" {
		s[key] = struct{}{}
	}
}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Clone returns an independent copy of s.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
