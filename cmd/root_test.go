package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/daily"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/resolve"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := parseAge(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseAge(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAge(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAge(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"archive", "backfill", "browse", "generate", "serve", "stats", "version"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("command %q not registered (err=%v)", name, err)
		}
	}
	for _, flag := range []string{"config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing global flag --%s", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if got := buf.String(); !strings.Contains(got, "sidequest 1.2.3") || !strings.Contains(got, "abc") {
		t.Errorf("unexpected version output %q", got)
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, &daily.Outcome{
		RunID:    "run-1",
		Date:     "2025-03-01",
		Rounds:   1,
		Replaced: []int{2},
		Ideas: []quest.Idea{
			{Title: "Gas Fee Weather", Murmur: "fees feel random", Difficulty: quest.Easy},
		},
	})
	out := buf.String()
	for _, want := range []string{"Quests for 2025-03-01", "Replaced 1 duplicate", "1. Gas Fee Weather [Easy]", "fees feel random"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printOutcome(&buf, &daily.Outcome{Date: "2025-03-01", Skipped: true})
	if !strings.Contains(buf.String(), "--force") {
		t.Errorf("skipped output should mention --force, got %q", buf.String())
	}
}

func TestExplainRunError(t *testing.T) {
	exhausted := &resolve.ExhaustedError{Index: 0, Title: "Dup", Attempts: 4}
	err := explainRunError(exhausted)
	if !errors.Is(err, resolve.ErrRegenerationExhausted) || !strings.Contains(err.Error(), "nothing was stored") {
		t.Errorf("unexpected explained error %v", err)
	}

	plain := errors.New("boom")
	if got := explainRunError(plain); got != plain {
		t.Errorf("plain errors should pass through, got %v", got)
	}
}
