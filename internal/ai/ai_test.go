package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/resolve"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

func TestNewNotConfigured(t *testing.T) {
	if _, err := New(context.Background(), nil, "key"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured for nil config, got %v", err)
	}
	if _, err := New(context.Background(), &config.AIConfig{Provider: "claude"}, ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured for empty key, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.AIConfig{Provider: "llama"}, "key")
	if err == nil || !strings.Contains(err.Error(), "unknown AI provider") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestNewDefaultModels(t *testing.T) {
	p, err := New(context.Background(), &config.AIConfig{Provider: "openai"}, "key")
	if err != nil {
		t.Fatal(err)
	}
	if op := p.(*openaiProvider); op.model != "gpt-4o-mini" {
		t.Errorf("unexpected default model %q", op.model)
	}
}

func TestParseIdeasArray(t *testing.T) {
	text := "```json\n" + `[
  {"title": "Gas Fee Weather", "murmur": "m", "quest": "q", "worth": ["a", "b"], "difficulty": "Easy"},
  {"title": "Commit Haiku", "murmur": "m2", "quest": "q2", "worth": "just one", "difficulty": "hard"}
]` + "\n```"

	got, err := ParseIdeas(text)
	if err != nil {
		t.Fatalf("ParseIdeas: %v", err)
	}
	want := []quest.Idea{
		{Title: "Gas Fee Weather", Murmur: "m", Quest: "q", Worth: []string{"a", "b"}, Difficulty: quest.Easy},
		{Title: "Commit Haiku", Murmur: "m2", Quest: "q2", Worth: []string{"just one"}, Difficulty: "hard"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ideas mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdeasShapes(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		count int
	}{
		{"wrapped ideas", `{"ideas": [{"title": "A"}, {"title": "B"}]}`, 2},
		{"wrapped quests", `Sure! {"quests": [{"title": "A"}]} Enjoy.`, 1},
		{"single object", `{"title": "Solo", "quest": "q"}`, 1},
		{"skips empty entries", `[{"title": ""}, {"title": "Kept"}]`, 1},
		{"empty array", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdeas(tt.text)
			if err != nil {
				t.Fatalf("ParseIdeas: %v", err)
			}
			if len(got) != tt.count {
				t.Errorf("expected %d ideas, got %d: %+v", tt.count, len(got), got)
			}
		})
	}
}

func TestParseIdeasErrors(t *testing.T) {
	for _, text := range []string{"", "no json here", "[{broken"} {
		if _, err := ParseIdeas(text); err == nil {
			t.Errorf("expected error for %q", text)
		}
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n[1]\n```", "[1]"},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go: [1, 2] hope it helps", "[1, 2]"},
		{"nothing", ""},
	}
	for _, tt := range tests {
		if got := cleanJSONResponse(tt.in); got != tt.want {
			t.Errorf("cleanJSONResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClaudeProviderComplete(t *testing.T) {
	var got struct {
		MaxTokens int       `json:"max_tokens"`
		Messages  []message `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("x-api-key") != "k" {
			t.Errorf("unexpected request %s key=%q", r.URL.Path, r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"content": [{"text": "[]"}]}`))
	}))
	defer srv.Close()

	p := &claudeProvider{apiKey: "k", model: "m", client: srv.Client(), baseURL: srv.URL}
	text, err := p.Complete(context.Background(), "hello", 99)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "[]" {
		t.Errorf("text = %q", text)
	}
	if got.MaxTokens != 99 || got.Messages[0].Content != "hello" {
		t.Errorf("unexpected request body %+v", got)
	}
}

func TestClaudeProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", 529)
	}))
	defer srv.Close()

	p := &claudeProvider{apiKey: "k", model: "m", client: srv.Client(), baseURL: srv.URL}
	_, err := p.Complete(context.Background(), "x", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 529 || apiErr.Provider != "claude" {
		t.Fatalf("expected claude APIError 529, got %v", err)
	}
	if !strings.Contains(apiErr.Body, "overloaded") {
		t.Errorf("body not captured: %q", apiErr.Body)
	}
}

func TestOpenAIProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "hi"}}]}`))
	}))
	defer srv.Close()

	p := &openaiProvider{apiKey: "k", model: "m", client: srv.Client(), baseURL: srv.URL}
	text, err := p.Complete(context.Background(), "x", 10)
	if err != nil || text != "hi" {
		t.Errorf("Complete = %q, %v", text, err)
	}
}

func TestOpenAIProviderEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	p := &openaiProvider{apiKey: "k", model: "m", client: srv.Client(), baseURL: srv.URL}
	if _, err := p.Complete(context.Background(), "x", 10); err == nil {
		t.Error("expected error for empty choices")
	}
}

type fakeGemini struct {
	model string
	text  string
}

func (f *fakeGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiProviderComplete(t *testing.T) {
	fake := &fakeGemini{text: `[{"title": "G"}]`}
	p := &geminiProvider{models: fake, model: defaultGeminiModel}

	text, err := p.Complete(context.Background(), "x", 10)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `[{"title": "G"}]` || fake.model != defaultGeminiModel {
		t.Errorf("text=%q model=%q", text, fake.model)
	}
}

// fakeProvider records prompts and replays canned responses.
type fakeProvider struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func TestGenerateBatch(t *testing.T) {
	p := &fakeProvider{responses: []string{`[{"title": "A"}, {"title": "B"}, {"title": "C"}]`}}
	g := NewGenerator(p)

	inspo := []signal.Signal{{Title: "I wish my plants texted me", Source: "HN"}}
	ideas, err := g.GenerateBatch(context.Background(), "2025-03-01", 2, inspo, "Play")
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(ideas) != 2 {
		t.Errorf("expected batch trimmed to 2, got %d", len(ideas))
	}
	prompt := p.prompts[0]
	for _, want := range []string{"2025-03-01", "I wish my plants texted me [HN]", `"Play"`, "exactly 2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateBatchEmpty(t *testing.T) {
	g := NewGenerator(&fakeProvider{responses: []string{"[]"}})
	if _, err := g.GenerateBatch(context.Background(), "2025-03-01", 5, nil, ""); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestReplacerBlockedInPrompt(t *testing.T) {
	p := &fakeProvider{responses: []string{`[{"title": "Fresh"}]`}}
	gen := NewGenerator(p).Replacer("2025-03-01", nil)

	idea, err := gen.GenerateReplacement(context.Background(), []string{"old one", "old two"})
	if err != nil {
		t.Fatalf("GenerateReplacement: %v", err)
	}
	if idea.Title != "Fresh" {
		t.Errorf("title = %q", idea.Title)
	}
	if !strings.Contains(p.prompts[0], "- old one\n- old two") {
		t.Errorf("blocked titles missing from prompt:\n%s", p.prompts[0])
	}
}

func TestReplacerNoCandidate(t *testing.T) {
	for _, resp := range []string{"[]", "sorry, I can't"} {
		gen := NewGenerator(&fakeProvider{responses: []string{resp}}).Replacer("2025-03-01", nil)
		if _, err := gen.GenerateReplacement(context.Background(), nil); !errors.Is(err, resolve.ErrNoCandidate) {
			t.Errorf("response %q: expected ErrNoCandidate, got %v", resp, err)
		}
	}
}

func TestReplacerProviderErrorPropagates(t *testing.T) {
	boom := errors.New("timeout")
	gen := NewGenerator(&fakeProvider{err: boom}).Replacer("2025-03-01", nil)
	_, err := gen.GenerateReplacement(context.Background(), nil)
	if !errors.Is(err, boom) || errors.Is(err, resolve.ErrNoCandidate) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestFormatBlockedCaps(t *testing.T) {
	blocked := make([]string, maxBlockedInPrompt+10)
	for i := range blocked {
		blocked[i] = "k"
	}
	if got := strings.Count(formatBlocked(blocked), "- k"); got != maxBlockedInPrompt {
		t.Errorf("expected %d entries, got %d", maxBlockedInPrompt, got)
	}
	if formatBlocked(nil) != "- (none)" {
		t.Error("expected placeholder for empty blocked list")
	}
}

func TestFormatBlockedKeepsLeadingKeys(t *testing.T) {
	blocked := []string{"today one", "today two"}
	for i := 0; i < maxBlockedInPrompt; i++ {
		blocked = append(blocked, fmt.Sprintf("history %03d", i))
	}
	out := formatBlocked(blocked)
	for _, want := range []string{"- today one", "- today two", "- history 000"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt dropped %q", want)
		}
	}
	if last := fmt.Sprintf("history %03d", maxBlockedInPrompt-1); strings.Contains(out, last) {
		t.Errorf("expected %q to be trimmed", last)
	}
}
