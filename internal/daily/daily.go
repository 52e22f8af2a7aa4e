// Package daily runs the generate, dedupe and persist pipeline for a date.
package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SBrookhart/side-quest-generator/internal/classify"
	"github.com/SBrookhart/side-quest-generator/internal/inspiration"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/publish"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/resolve"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
	"github.com/SBrookhart/side-quest-generator/internal/store"
)

// Store is the persistence the pipeline needs.
type Store interface {
	HasBatch(ctx context.Context, date string) (bool, error)
	HistoryTitles(ctx context.Context, excludeDate string) ([]string, error)
	SaveBatch(ctx context.Context, date, runID string, ideas []quest.Idea) error
	RecordRun(ctx context.Context, r store.Run) error
}

// Generator produces a raw batch and per-date replacements.
type Generator interface {
	GenerateBatch(ctx context.Context, date string, n int, inspiration []signal.Signal, focus string) ([]quest.Idea, error)
	Replacer(date string, inspiration []signal.Signal) resolve.Generator
}

// Publisher exposes a finished batch.
type Publisher interface {
	Publish(ctx context.Context, doc publish.Document) error
}

type Options struct {
	BatchSize        int
	InspirationLimit int
	SourcesPerIdea   int
	Focus            classify.Theme
	SourceWeights    map[string]float64
	Resolve          resolve.Options
}

type Pipeline struct {
	store     Store
	gen       Generator
	sources   []SignalSource
	publisher Publisher
	opts      Options
	now       func() time.Time
}

// New builds a pipeline. publisher may be nil.
func New(s Store, gen Generator, sources []SignalSource, publisher Publisher, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.InspirationLimit <= 0 {
		opts.InspirationLimit = 10
	}
	if opts.SourcesPerIdea <= 0 {
		opts.SourcesPerIdea = 2
	}
	return &Pipeline{
		store:     s,
		gen:       gen,
		sources:   sources,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

// Outcome describes one pipeline run.
type Outcome struct {
	RunID    string
	Date     string
	Skipped  bool
	Ideas    []quest.Idea
	Rounds   int
	Attempts int
	Replaced []int
	Digest   inspiration.Digest
}

// Run generates and stores the batch for date. An existing batch is kept unless
// force is set. On any failure nothing is persisted for date.
func (p *Pipeline) Run(ctx context.Context, date string, force bool) (*Outcome, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	out := &Outcome{RunID: uuid.NewString(), Date: date}
	log := logging.From(ctx).With("run_id", out.RunID, "date", date)
	ctx = logging.With(ctx, log)

	run := store.Run{ID: out.RunID, Date: date, StartedAt: p.now().UTC()}

	if !force {
		exists, err := p.store.HasBatch(ctx, date)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Info("batch already stored, skipping")
			out.Skipped = true
			run.Status = store.RunSkipped
			p.record(ctx, run)
			return out, nil
		}
	}

	ideas, err := p.build(ctx, date, out)
	run.Rounds, run.Attempts = out.Rounds, out.Attempts
	if err == nil {
		err = p.store.SaveBatch(ctx, date, out.RunID, ideas)
	}
	if err != nil {
		run.Status = store.RunFailed
		run.Error = err.Error()
		p.record(ctx, run)
		log.Error("run failed", "error", err)
		return nil, err
	}
	out.Ideas = ideas

	run.Status = store.RunSucceeded
	p.record(ctx, run)
	log.Info("batch stored", "ideas", len(ideas), "rounds", out.Rounds, "replaced", len(out.Replaced))

	if p.publisher != nil {
		doc := publish.Document{Date: date, RunID: out.RunID, GeneratedAt: p.now().UTC(), Quests: ideas}
		if err := p.publisher.Publish(ctx, doc); err != nil {
			log.Warn("publish failed", "error", err)
		}
	}
	return out, nil
}

func (p *Pipeline) build(ctx context.Context, date string, out *Outcome) ([]quest.Idea, error) {
	log := logging.From(ctx)

	signals := collect(ctx, p.sources)
	out.Digest = inspiration.Select(signals, inspiration.SelectOpts{
		Limit:         p.opts.InspirationLimit,
		Focus:         p.opts.Focus,
		SourceWeights: p.opts.SourceWeights,
	})
	log.Info("inspiration selected", "scanned", out.Digest.Scanned, "selected", len(out.Digest.Selected), "themes", out.Digest.Themes)

	raw, err := p.gen.GenerateBatch(ctx, date, p.opts.BatchSize, out.Digest.Selected, string(p.opts.Focus))
	if err != nil {
		return nil, err
	}
	if len(raw) < p.opts.BatchSize {
		log.Warn("generator returned a short batch", "want", p.opts.BatchSize, "got", len(raw))
	}
	normalized := quest.NormalizeForDate(raw, date)

	history, err := p.store.HistoryTitles(ctx, date)
	if err != nil {
		return nil, err
	}

	res, err := resolve.New(p.gen.Replacer(date, out.Digest.Selected), date, p.opts.Resolve).
		Resolve(ctx, normalized, history)
	if err != nil {
		return nil, err
	}
	out.Rounds, out.Attempts, out.Replaced = res.Rounds, res.Attempts, res.Replaced

	// Replacements are normalized one at a time, so the batch-wide Hard cap
	// has to be applied again.
	ideas := quest.CapHard(res.Ideas, date)
	return inspiration.AttachSources(ideas, out.Digest.Selected, p.opts.SourcesPerIdea), nil
}

func (p *Pipeline) record(ctx context.Context, run store.Run) {
	run.FinishedAt = p.now().UTC()
	if err := p.store.RecordRun(ctx, run); err != nil {
		logging.From(ctx).Warn("recording run failed", "error", err)
	}
}

// BackfillReport summarizes a Backfill.
type BackfillReport struct {
	Generated []string
	Skipped   []string
	Failed    map[string]error
}

// Backfill runs the pipeline for every date from..to inclusive, oldest first, so
// each day sees the history of the days before it. A failed date is recorded and
// the loop moves on.
func (p *Pipeline) Backfill(ctx context.Context, from, to string, force bool) (*BackfillReport, error) {
	dates, err := DateRange(from, to)
	if err != nil {
		return nil, err
	}

	report := &BackfillReport{Failed: map[string]error{}}
	var errs []error
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out, err := p.Run(ctx, date, force)
		switch {
		case err != nil:
			report.Failed[date] = err
			errs = append(errs, fmt.Errorf("%s: %w", date, err))
		case out.Skipped:
			report.Skipped = append(report.Skipped, date)
		default:
			report.Generated = append(report.Generated, date)
		}
	}
	return report, errors.Join(errs...)
}

// DateRange lists YYYY-MM-DD dates from..to inclusive.
func DateRange(from, to string) ([]string, error) {
	start, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("from %s is after to %s", from, to)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(time.DateOnly))
	}
	return dates, nil
}

// ArchiveCutoff is the first date that stays in the daily table when batches
// older than age are archived, counted back from today.
func ArchiveCutoff(today string, age time.Duration) (string, error) {
	t, err := time.Parse(time.DateOnly, today)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", today, err)
	}
	days := int(age / (24 * time.Hour))
	return t.AddDate(0, 0, -days).Format(time.DateOnly), nil
}
