package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

// MaxAge bounds how old a feed item may be to count as inspiration.
const MaxAge = 7 * 24 * time.Hour

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]signal.Signal, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	now    func() time.Time
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser(), now: time.Now}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]signal.Signal, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := f.now()
	cutoff := now.Add(-MaxAge)
	signals := make([]signal.Signal, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}

		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}
		if pub.Before(cutoff) {
			continue
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		signals = append(signals, signal.Signal{
			ID:          signal.IDFor(item.Link),
			Kind:        signal.KindRSS,
			Source:      source.Name,
			Title:       strings.TrimSpace(item.Title),
			Description: truncate(stripHTML(desc), 300),
			URL:         item.Link,
			Published:   pub,
		})
	}
	return signals, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

type FetchResult struct {
	Signals []signal.Signal
	Errors  []error
}

// FetchAll fetches every source concurrently. A failing source is recorded in
// Errors and does not stop the others. Signals sharing a link are kept once.
func FetchAll(ctx context.Context, fetcher Fetcher, sources []config.Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	if fetcher == nil {
		fetcher = NewRSSFetcher()
	}
	log := logging.From(ctx)

	for _, src := range sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			signals, err := fetcher.Fetch(ctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("feed fetch failed", "source", s.Name, "error", err)
				result.Errors = append(result.Errors, err)
				return
			}
			log.Debug("feed fetched", "source", s.Name, "items", len(signals))
			result.Signals = append(result.Signals, signals...)
		}(src)
	}

	wg.Wait()
	result.Signals = dedupe(result.Signals)
	return result
}

// dedupe keeps the first signal per ID in a goroutine-order independent way.
func dedupe(signals []signal.Signal) []signal.Signal {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].ID != signals[j].ID {
			return signals[i].ID < signals[j].ID
		}
		return signals[i].Source < signals[j].Source
	})
	out := signals[:0]
	for i, s := range signals {
		if i > 0 && s.ID == signals[i-1].ID {
			continue
		}
		out = append(out, s)
	}
	return out
}
