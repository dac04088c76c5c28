package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"canvas_ai_server/internal/utils"

	openai "github.com/sashabaranov/go-openai"
)

// StreamText opens a streaming chat completion and forwards every content delta.
// Opening the stream is retried once on transient errors; once fragments have
// been delivered nothing is retried.
func (g *Generator) StreamText(ctx context.Context, req StreamRequest, onText func(fragment string) error) error {
	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   g.maxTokens,
		Temperature: 0.3,
		Stream:      true,
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil && utils.ShouldRetry(err) {
		log.Printf("OpenAI stream open failed, retrying once after %s... Error: %v", g.retryDelay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.retryDelay):
		}
		stream, err = g.client.CreateChatCompletionStream(ctx, chatReq)
	}
	if err != nil {
		return fmt.Errorf("openai chat completion stream failed: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("openai stream receive failed: %w", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onText(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}
