package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/store"
)

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"test", 0, ""},
	}
	for _, tt := range tests {
		got := truncateStr(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateStrUTF8(t *testing.T) {
	got := truncateStr("日本語テスト", 5)
	want := "日本..."
	if got != want {
		t.Errorf("truncateStr(Japanese, 5) = %q, want %q", got, want)
	}
}

func TestShiftDate(t *testing.T) {
	tests := []struct {
		date  string
		days  int
		limit string
		want  string
	}{
		{"2025-03-01", -1, "2025-03-05", "2025-02-28"},
		{"2024-02-28", 1, "", "2024-02-29"},
		{"2025-03-05", 1, "2025-03-05", "2025-03-05"},
		{"2025-03-04", 3, "2025-03-05", "2025-03-05"},
	}
	for _, tt := range tests {
		got, err := shiftDate(tt.date, tt.days, tt.limit)
		if err != nil {
			t.Fatalf("shiftDate(%q): %v", tt.date, err)
		}
		if got != tt.want {
			t.Errorf("shiftDate(%q, %d, %q) = %q, want %q", tt.date, tt.days, tt.limit, got, tt.want)
		}
	}
	if _, err := shiftDate("03/01/2025", 1, ""); err == nil {
		t.Error("expected error for malformed date")
	}
}

var ideas = []quest.Idea{
	{Title: "Gas Fee Weather", Quest: "A forecast for fees", Difficulty: quest.Easy,
		Sources: []quest.Source{{Name: "HN", URL: "https://news.ycombinator.com/item?id=1"}}},
	{Title: "Wallet Diary", Quest: "Journal your wallet", Difficulty: quest.Medium},
	{Title: "Tiny Synth", Quest: "A browser synth with weather input", Difficulty: quest.Hard},
}

func titles(in []quest.Idea) []string {
	var out []string
	for _, i := range in {
		out = append(out, i.Title)
	}
	return out
}

func TestFilterIdeas(t *testing.T) {
	f := newFilterBar()
	if diff := cmp.Diff(titles(ideas), titles(filterIdeas(ideas, &f, ""))); diff != "" {
		t.Errorf("no filter mismatch (-want +got):\n%s", diff)
	}

	f.toggle(quest.Easy)
	f.toggle(quest.Hard)
	if diff := cmp.Diff([]string{"Gas Fee Weather", "Tiny Synth"}, titles(filterIdeas(ideas, &f, ""))); diff != "" {
		t.Errorf("difficulty filter mismatch (-want +got):\n%s", diff)
	}
	if got := f.activeLabel(); got != "Easy, Hard" {
		t.Errorf("activeLabel = %q", got)
	}

	// search matches title or quest text
	if diff := cmp.Diff([]string{"Gas Fee Weather", "Tiny Synth"}, titles(filterIdeas(ideas, &f, "WEATHER"))); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}

	f.toggle(quest.Easy)
	f.toggle(quest.Hard)
	if got := f.activeLabel(); got != "All" {
		t.Errorf("activeLabel after clearing = %q", got)
	}
}

type fakeBatches map[string][]quest.Idea

func (f fakeBatches) GetBatch(ctx context.Context, date string) ([]quest.Idea, error) {
	if date == "boom" {
		return nil, errors.New("disk on fire")
	}
	b, ok := f[date]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadDayCmd(t *testing.T) {
	app := NewApp(RunOpts{Batches: fakeBatches{"2025-03-01": ideas}, Today: "2025-03-01"})

	if msg, ok := app.loadDayCmd("2025-03-01")().(dayLoadedMsg); !ok || len(msg.ideas) != 3 {
		t.Errorf("expected dayLoadedMsg with 3 ideas, got %#v", msg)
	}
	if _, ok := app.loadDayCmd("2025-02-01")().(dayMissingMsg); !ok {
		t.Error("expected dayMissingMsg for a date without a batch")
	}
	if _, ok := app.loadDayCmd("boom")().(loadErrMsg); !ok {
		t.Error("expected loadErrMsg on store failure")
	}
}

func TestAppDayPaging(t *testing.T) {
	app := NewApp(RunOpts{Batches: fakeBatches{}, Today: "2025-03-05"})
	app.Update(dayMissingMsg{date: "2025-03-05"})
	if !app.missing || app.loading {
		t.Fatalf("expected missing day, got missing=%v loading=%v", app.missing, app.loading)
	}

	app.Update(key("]"))
	if app.date != "2025-03-05" {
		t.Errorf("paged past today to %s", app.date)
	}

	app.Update(key("["))
	if app.date != "2025-03-04" || !app.loading {
		t.Errorf("expected loading 2025-03-04, got %s loading=%v", app.date, app.loading)
	}

	// a late response for another day is ignored
	app.Update(dayLoadedMsg{date: "2025-03-05", ideas: ideas})
	if len(app.all) != 0 {
		t.Error("stale day response was applied")
	}

	app.Update(dayLoadedMsg{date: "2025-03-04", ideas: ideas})
	if app.loading || app.missing || len(app.ideas) != 3 {
		t.Errorf("day not applied: loading=%v missing=%v ideas=%d", app.loading, app.missing, len(app.ideas))
	}

	app.Update(key("t"))
	if app.date != "2025-03-05" {
		t.Errorf("t should jump to today, got %s", app.date)
	}
}

func TestAppFilterAndOpen(t *testing.T) {
	app := NewApp(RunOpts{Batches: fakeBatches{}, Today: "2025-03-05"})
	var opened []string
	app.open = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	app.Update(dayLoadedMsg{date: "2025-03-05", ideas: ideas})

	app.Update(key("f"))
	app.Update(key("3"))
	app.Update(key("f"))
	if diff := cmp.Diff([]string{"Tiny Synth"}, titles(app.ideas)); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	// Hard quest has no sources
	if _, cmd := app.Update(key("o")); cmd != nil {
		t.Error("expected no command when the quest has no sources")
	}

	app.Update(key("f"))
	app.Update(key("3"))
	app.Update(key("f"))
	_, cmd := app.Update(key("o"))
	if cmd == nil {
		t.Fatal("expected open command")
	}
	cmd()
	if diff := cmp.Diff([]string{"https://news.ycombinator.com/item?id=1"}, opened); diff != "" {
		t.Errorf("opened mismatch (-want +got):\n%s", diff)
	}
}

func TestAppOpenError(t *testing.T) {
	app := NewApp(RunOpts{Batches: fakeBatches{}, Today: "2025-03-05"})
	app.open = func(string) error { return errors.New("no browser") }
	app.Update(dayLoadedMsg{date: "2025-03-05", ideas: ideas})

	_, cmd := app.Update(key("1"))
	if cmd == nil {
		t.Fatal("expected open command")
	}
	app.Update(cmd())
	if app.err == nil {
		t.Error("expected open error to surface")
	}
}

func TestViewRenders(t *testing.T) {
	app := NewApp(RunOpts{Batches: fakeBatches{}, Today: "2025-03-05"})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.Update(dayLoadedMsg{date: "2025-03-05", ideas: ideas})
	if app.View() == "" {
		t.Error("empty view with quests")
	}
	app.Update(key("["))
	app.Update(dayMissingMsg{date: "2025-03-04"})
	if app.View() == "" {
		t.Error("empty view for missing day")
	}
}
