package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// geminiModels is the slice of genai.Models the provider needs.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiProvider struct {
	models geminiModels
	model  string
}

func newGeminiProvider(ctx context.Context, apiKey, model string) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiProvider{models: client.Models, model: model}, nil
}

func (g *geminiProvider) Name() string { return "gemini" }

func (g *geminiProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  int32(maxTokens),
		Temperature:      genai.Ptr(float32(0.9)),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return text, nil
}
