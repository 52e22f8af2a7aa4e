package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

const (
	// MaxAttempts is the fixed number of replacement tries per duplicate index.
	MaxAttempts      = 4
	DefaultMaxRounds = 8
)

// Generator produces one replacement idea whose title key should avoid blocked.
// Implementations are not trusted to honor blocked.
type Generator interface {
	GenerateReplacement(ctx context.Context, blocked []string) (quest.Idea, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, blocked []string) (quest.Idea, error)

func (f GeneratorFunc) GenerateReplacement(ctx context.Context, blocked []string) (quest.Idea, error) {
	return f(ctx, blocked)
}

// State is where the resolver is in its scan/regenerate cycle. There is no
// failed state on Result: failures come back as errors with no batch.
type State int

const (
	Scanning State = iota
	Regenerating
	Done
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Regenerating:
		return "regenerating"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options tunes the resolver. A zero MaxRounds takes the default.
type Options struct {
	MaxRounds int
}

// Resolver replaces duplicate ideas in a batch until none remain.
type Resolver struct {
	gen       Generator
	date      string
	maxRounds int
}

// New returns a Resolver that normalizes replacements for date.
func New(gen Generator, date string, opts Options) *Resolver {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	return &Resolver{
		gen:       gen,
		date:      date,
		maxRounds: opts.MaxRounds,
	}
}

// Result is a resolved batch plus what it took to get there.
type Result struct {
	Ideas    []quest.Idea
	State    State
	Rounds   int
	Attempts int
	Replaced []int
}

// FindDuplicates returns, in ascending order, the indices of batch whose title key
// was already seen, either in history or at an earlier accepted index.
// Empty keys are never duplicates.
func FindDuplicates(batch []quest.Idea, history quest.KeySet) []int {
	seen := history.Clone()
	var dups []int
	for i, idea := range batch {
		key := idea.Key()
		if key == "" {
			continue
		}
		if seen.Has(key) {
			dups = append(dups, i)
			continue
		}
		seen.Add(key)
	}
	return dups
}

// Resolve scans batch against existingTitles and regenerates duplicate slots one at a
// time, in index order, until a scan comes back clean. batch is expected to be
// normalized already; it is not modified. On failure no ideas are returned.
func (r *Resolver) Resolve(ctx context.Context, batch []quest.Idea, existingTitles []string) (*Result, error) {
	log := logging.From(ctx).With("date", r.date)

	base := quest.NewHistoryKeySet(existingTitles...)
	history := base.Clone()
	res := &Result{
		Ideas: append([]quest.Idea(nil), batch...),
		State: Scanning,
	}

	for {
		dups := FindDuplicates(res.Ideas, base)
		if len(dups) == 0 {
			res.State = Done
			log.Debug("batch is collision free", "rounds", res.Rounds, "attempts", res.Attempts)
			return res, nil
		}
		if res.Rounds >= r.maxRounds {
			return nil, &RoundLimitError{Rounds: res.Rounds, Indices: dups}
		}

		res.State = Regenerating
		res.Rounds++
		log.Info("regenerating duplicate ideas", "round", res.Rounds, "indices", dups)

		for _, idx := range dups {
			if err := r.replace(ctx, res, history, idx); err != nil {
				return nil, err
			}
		}
		res.State = Scanning
	}
}

func (r *Resolver) replace(ctx context.Context, res *Result, history quest.KeySet, idx int) error {
	log := logging.From(ctx)
	original := res.Ideas[idx].Title

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		blocked := blockedKeys(history, res.Ideas)
		candidate, err := r.gen.GenerateReplacement(ctx, blocked)
		res.Attempts++
		if errors.Is(err, ErrNoCandidate) {
			log.Debug("generator returned no candidate", "index", idx, "attempt", attempt)
			continue
		}
		if err != nil {
			return fmt.Errorf("regenerating index %d: %w", idx, err)
		}

		normalized := quest.NormalizeForDate([]quest.Idea{candidate}, r.date)[0]
		key := normalized.Key()
		if key == "" || history.Has(key) {
			log.Debug("rejected replacement", "index", idx, "attempt", attempt, "title", normalized.Title)
			continue
		}

		history.Add(key)
		res.Ideas[idx] = normalized
		res.Replaced = append(res.Replaced, idx)
		log.Info("replaced duplicate idea", "index", idx, "attempt", attempt, "from", original, "to", normalized.Title)
		return nil
	}

	return &ExhaustedError{Index: idx, Title: original, Attempts: MaxAttempts}
}

// blockedKeys lists the current batch keys first, then the rest of history.
// Both halves are sorted so prompts stay stable, and a capped prompt drops
// history before it drops anything in the batch.
func blockedKeys(history quest.KeySet, batch []quest.Idea) []string {
	inBatch := quest.KeySet{}
	for _, idea := range batch {
		inBatch.Add(idea.Key())
	}
	head := make([]string, 0, len(inBatch))
	for k := range inBatch {
		head = append(head, k)
	}
	sort.Strings(head)

	tail := make([]string, 0, len(history))
	for k := range history {
		if !inBatch.Has(k) {
			tail = append(tail, k)
		}
	}
	sort.Strings(tail)
	return append(head, tail...)
}
