package ai

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"
)

// GeminiGenerator streams completions from the Gemini API.
type GeminiGenerator struct {
	cli       *genai.Client
	model     string
	maxTokens int
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiGenerator, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &GeminiGenerator{cli: cli, model: model, maxTokens: maxTokens}, nil
}

func (g *GeminiGenerator) StreamText(ctx context.Context, req StreamRequest, onText func(fragment string) error) error {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   int32(g.maxTokens),
	}
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, genai.Text(req.User), cfg) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if err := onText(text); err != nil {
			return err
		}
	}
	return nil
}
