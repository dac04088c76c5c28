package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"canvas_ai_server/config"
	"canvas_ai_server/internal/ai"
	"canvas_ai_server/internal/build"
	"canvas_ai_server/internal/publish"
	"canvas_ai_server/internal/realtime"
	"canvas_ai_server/internal/store"
)

func newStreamer(ctx context.Context, cfg config.Config) (ai.Streamer, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "gemini":
		log.Printf("Using Gemini model %s", cfg.GeminiModel)
		return ai.NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.MaxTokens)
	case "openai", "":
		log.Printf("Using OpenAI model %s", cfg.OpenAIModel)
		return ai.NewGenerator(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// openStore picks Postgres when DATABASE_URL is set and memory otherwise,
// always behind the LRU cache.
func openStore(ctx context.Context, cfg config.Config) (store.PageStore, func(), error) {
	var (
		origin  store.PageStore
		closeFn = func() {}
	)
	if cfg.DatabaseURL == "" {
		log.Println("WARN: DATABASE_URL is not set, page versions are kept in memory only.")
		origin = store.NewMemoryStore()
	} else {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Postgres page store ready")
		origin = pg
		closeFn = func() {
			if err := pg.Close(); err != nil {
				log.Printf("WARN: closing postgres: %v", err)
			}
		}
	}
	cached, err := store.NewCachedStore(origin, cfg.CacheSize)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return cached, closeFn, nil
}

// newPublisher returns nil when S3 publishing is not configured.
func newPublisher(cfg config.Config) (build.Publisher, error) {
	if cfg.S3Endpoint == "" {
		return nil, nil
	}
	p, err := publish.NewS3Publisher(publish.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Publishing page versions to bucket %s at %s", cfg.S3Bucket, cfg.S3Endpoint)
	return p, nil
}

func buildOptions(cfg config.Config) build.Options {
	opts := build.DefaultOptions()
	if cfg.BroadcastChannel != "" {
		opts.ChannelName = cfg.BroadcastChannel
	}
	if cfg.SubscribeTimeout > 0 {
		opts.SubscribeTimeout = cfg.SubscribeTimeout
	}
	if cfg.PhasePause >= 0 {
		opts.PhasePause = cfg.PhasePause
	}
	if cfg.PublishTimeout > 0 {
		opts.PublishTimeout = cfg.PublishTimeout
	}
	opts.Pacing = realtime.DefaultPacing(realtime.PacingMode(cfg.PacingMode))
	return opts
}
