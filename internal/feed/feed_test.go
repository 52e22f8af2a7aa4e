package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateUTF8(t *testing.T) {
	input := "こんにちは世界です"
	got := truncate(input, 5)
	want := "こん..."
	if got != want {
		t.Errorf("truncate(%q, 5) = %q, want %q", input, got, want)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"No tags here", "No tags here"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"", ""},
		{"<a href=\"url\">Link</a> text", "Link text"},
	}
	for _, tt := range tests {
		got := stripHTML(tt.input)
		if got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func rssServer(t *testing.T, now time.Time) *httptest.Server {
	t.Helper()
	fresh := now.Add(-2 * time.Hour).Format(time.RFC1123Z)
	stale := now.Add(-30 * 24 * time.Hour).Format(time.RFC1123Z)
	body := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test</title>
<item><title>I wish my calendar had a snooze button</title><link>https://example.com/a</link>
<description>&lt;p&gt;Someone should build it&lt;/p&gt;</description><pubDate>%s</pubDate></item>
<item><title>Old news</title><link>https://example.com/old</link><pubDate>%s</pubDate></item>
<item><title>   </title><link>https://example.com/blank</link><pubDate>%s</pubDate></item>
</channel></rss>`, fresh, stale, fresh)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSFetcherFetch(t *testing.T) {
	now := time.Now()
	srv := rssServer(t, now)

	f := NewRSSFetcher()
	f.now = func() time.Time { return now }

	got, err := f.Fetch(context.Background(), config.Source{Name: "Test", Type: "rss", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 fresh signal, got %d: %+v", len(got), got)
	}
	s := got[0]
	if s.Kind != signal.KindRSS || s.Source != "Test" || s.URL != "https://example.com/a" {
		t.Errorf("unexpected signal: %+v", s)
	}
	if s.Description != "Someone should build it" {
		t.Errorf("description not stripped: %q", s.Description)
	}
	if s.ID != signal.IDFor("https://example.com/a") {
		t.Errorf("unexpected ID %q", s.ID)
	}
}

type stubFetcher map[string][]signal.Signal

func (f stubFetcher) Fetch(ctx context.Context, source config.Source) ([]signal.Signal, error) {
	s, ok := f[source.Name]
	if !ok {
		return nil, errors.New("boom: " + source.Name)
	}
	return s, nil
}

func TestFetchAllCollectsErrorsAndDedupes(t *testing.T) {
	shared := signal.Signal{ID: "same", Title: "Shared"}
	fetcher := stubFetcher{
		"A": {shared, {ID: "a1", Title: "Only A"}},
		"B": {shared},
	}
	sources := []config.Source{{Name: "A"}, {Name: "B"}, {Name: "Broken"}}

	res := FetchAll(context.Background(), fetcher, sources)
	if len(res.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", res.Errors)
	}
	if len(res.Signals) != 2 {
		t.Errorf("expected 2 unique signals, got %d: %+v", len(res.Signals), res.Signals)
	}
}
