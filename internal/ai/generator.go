package ai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// StreamRequest is one generation call: a system prompt plus the user turn.
type StreamRequest struct {
	System string
	User   string
}

// Streamer produces ordered text fragments for a request. onText is called
// once per fragment; an error from onText stops the stream and is returned.
type Streamer interface {
	StreamText(ctx context.Context, req StreamRequest, onText func(fragment string) error) error
}

// Generator streams completions from the OpenAI chat API.
type Generator struct {
	client     *openai.Client
	model      string
	maxTokens  int
	retryDelay time.Duration
}

func NewGenerator(apiKey string, model string, maxTokens int) *Generator {
	return NewGeneratorWithConfig(openai.DefaultConfig(apiKey), model, maxTokens)
}

// NewGeneratorWithConfig allows pointing the client at a different base URL.
func NewGeneratorWithConfig(cfg openai.ClientConfig, model string, maxTokens int) *Generator {
	if model == "" {
		model = openai.GPT4o
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &Generator{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxTokens:  maxTokens,
		retryDelay: 2 * time.Second,
	}
}
