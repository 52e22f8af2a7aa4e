package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

const searchBody = `{
  "items": [
    {"title": "Wish: export my streaks as a calendar", "html_url": "https://github.com/o/r/issues/1",
     "body": "It would be nice\n\nif this existed", "created_at": "2025-03-01T10:00:00Z",
     "reactions": {"total_count": 12}, "comments": 3},
    {"title": "  ", "html_url": "https://github.com/o/r/issues/2"},
    {"title": "Dup across queries", "html_url": "https://github.com/o/r/issues/3"}
  ]
}`

func TestSearch(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/issues" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := New("tok").WithBaseURL(srv.URL)
	got, err := c.Search(context.Background(), "is:issue wish", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "is:issue wish" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 signals (blank title skipped), got %d", len(got))
	}
	s := got[0]
	if s.Kind != signal.KindGitHub || s.Reactions != 15 {
		t.Errorf("unexpected signal: %+v", s)
	}
	if s.Description != "It would be nice if this existed" {
		t.Errorf("body not collapsed: %q", s.Description)
	}
	if s.Published.IsZero() {
		t.Error("expected created_at parsed")
	}
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New("").WithBaseURL(srv.URL).Search(context.Background(), "x", 0)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("expected 403 error, got %v", err)
	}
}

func TestSearchAllDedupesAndKeepsGoing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "broken" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	got, errs := New("").WithBaseURL(srv.URL).SearchAll(context.Background(), []string{"one", "broken", "two"}, 5)
	if len(errs) != 1 {
		t.Errorf("expected 1 error, got %v", errs)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 unique signals, got %d", len(got))
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt(strings.Repeat("a ", 400), 10); got != "a a a a..." {
		t.Errorf("excerpt = %q", got)
	}
	if got := excerpt("short", 10); got != "short" {
		t.Errorf("excerpt = %q", got)
	}
}
