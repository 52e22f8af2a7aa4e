package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrRegenerationExhausted means a duplicate slot could not be refilled within
	// the per-index attempt limit. The batch must not be persisted.
	ErrRegenerationExhausted = errors.New("RegenerationExhausted")

	// ErrRoundLimit means duplicates kept reappearing after MaxRounds full passes.
	ErrRoundLimit = errors.New("resolver round limit reached")

	// ErrNoCandidate may be returned by a Generator that produced nothing usable.
	// It costs one attempt instead of aborting the resolution.
	ErrNoCandidate = errors.New("generator returned no candidate")
)

// ExhaustedError names the batch index that could not be repaired.
type ExhaustedError struct {
	Index    int
	Title    string
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: index %d (%q) still duplicated after %d attempts",
		ErrRegenerationExhausted, e.Index, e.Title, e.Attempts)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrRegenerationExhausted
}

// RoundLimitError lists the indices that were still duplicated when the round cap hit.
type RoundLimitError struct {
	Rounds  int
	Indices []int
}

func (e *RoundLimitError) Error() string {
	return fmt.Sprintf("%s: %d rounds, duplicates remain at %v", ErrRoundLimit, e.Rounds, e.Indices)
}

func (e *RoundLimitError) Is(target error) bool {
	return target == ErrRoundLimit
}
