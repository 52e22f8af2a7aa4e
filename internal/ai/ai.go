package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/config"
)

// ErrNotConfigured is returned when no provider or API key is set.
var ErrNotConfigured = errors.New("AI not configured")

// Provider turns a prompt into completion text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// New creates a Provider from the given AI config.
func New(ctx context.Context, cfg *config.AIConfig, apiKey string) (Provider, error) {
	if cfg == nil || apiKey == "" {
		return nil, ErrNotConfigured
	}

	client := &http.Client{Timeout: 60 * time.Second}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &claudeProvider{apiKey: apiKey, model: model, client: client, baseURL: claudeBaseURL}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &openaiProvider{apiKey: apiKey, model: model, client: client, baseURL: openaiBaseURL}, nil
	case "gemini":
		return newGeminiProvider(ctx, apiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: claude, openai, gemini)", cfg.Provider)
	}
}

// APIError is a non-200 answer from a provider's HTTP API.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API %d: %s", e.Provider, e.Status, e.Body)
}

// postJSON sends body as JSON and decodes a 200 response into out.
func postJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header = header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s API error: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Provider: provider, Status: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", provider, err)
	}
	return nil
}

const (
	claudeBaseURL = "https://api.anthropic.com"
	openaiBaseURL = "https://api.openai.com"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeProvider struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func (c *claudeProvider) Name() string { return "claude" }

func (c *claudeProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens"`
		Messages  []message `json:"messages"`
	}{c.model, maxTokens, []message{{Role: "user", Content: prompt}}}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("anthropic-version", "2023-06-01")
	if err := postJSON(ctx, c.client, "claude", c.baseURL+"/v1/messages", header, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("empty claude response")
	}
	return resp.Content[0].Text, nil
}

type openaiProvider struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func (o *openaiProvider) Name() string { return "openai" }

func (o *openaiProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := struct {
		Model     string    `json:"model"`
		Messages  []message `json:"messages"`
		MaxTokens int       `json:"max_tokens,omitempty"`
	}{o.model, []message{{Role: "user", Content: prompt}}, maxTokens}

	var resp struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.apiKey)
	if err := postJSON(ctx, o.client, "openai", o.baseURL+"/v1/chat/completions", header, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty openai response")
	}
	return resp.Choices[0].Message.Content, nil
}
