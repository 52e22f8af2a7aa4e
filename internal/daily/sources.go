package daily

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/feed"
	"github.com/SBrookhart/side-quest-generator/internal/github"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

// SignalSource yields inspiration signals. A partial result with an error is allowed.
type SignalSource interface {
	Name() string
	Signals(ctx context.Context) ([]signal.Signal, error)
}

// FeedSource reads the configured RSS and Atom feeds.
type FeedSource struct {
	Fetcher feed.Fetcher
	Sources []config.Source
}

func (f *FeedSource) Name() string { return "feeds" }

func (f *FeedSource) Signals(ctx context.Context) ([]signal.Signal, error) {
	res := feed.FetchAll(ctx, f.Fetcher, f.Sources)
	return res.Signals, errors.Join(res.Errors...)
}

// GitHubSource runs the configured issue searches.
type GitHubSource struct {
	Client   *github.Client
	Queries  []string
	PerQuery int
}

func (g *GitHubSource) Name() string { return "github" }

func (g *GitHubSource) Signals(ctx context.Context) ([]signal.Signal, error) {
	signals, errs := g.Client.SearchAll(ctx, g.Queries, g.PerQuery)
	return signals, errors.Join(errs...)
}

// SourcesFromConfig builds the signal sources cfg enables.
func SourcesFromConfig(cfg *config.Config) []SignalSource {
	var out []SignalSource
	if feeds := cfg.EnabledSources(); len(feeds) > 0 {
		out = append(out, &FeedSource{Fetcher: feed.NewRSSFetcher(), Sources: feeds})
	}
	if cfg.GitHub.Enabled && len(cfg.GitHub.Queries) > 0 {
		out = append(out, &GitHubSource{
			Client:   github.New(cfg.GitHub.Token),
			Queries:  cfg.GitHub.Queries,
			PerQuery: cfg.GitHub.PerQuery,
		})
	}
	return out
}

// collect queries every source concurrently. Source failures are logged and
// never fail the run; a day with no inspiration still gets quests.
func collect(ctx context.Context, sources []SignalSource) []signal.Signal {
	var (
		mu  sync.Mutex
		all []signal.Signal
	)
	log := logging.From(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			signals, err := src.Signals(gctx)
			if err != nil {
				log.Warn("signal source had errors", "source", src.Name(), "error", err)
			}
			mu.Lock()
			defer mu.Unlock()
			all = append(all, signals...)
			return nil
		})
	}

	_ = g.Wait()
	return all
}
