package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress  string `mapstructure:"SERVER_ADDRESS"`   // e.g., ":8080"
	AppEnv         string `mapstructure:"APP_ENV"`          // "production" switches gin to release mode
	OwnerSecretKey string `mapstructure:"OWNER_SECRET_KEY"` // bearer token for instruct/reset

	// AI Configuration
	LLMProvider string `mapstructure:"LLM_PROVIDER"` // "openai" or "gemini"
	OpenAIKey   string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel string `mapstructure:"OPENAI_MODEL"`
	GeminiKey   string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel string `mapstructure:"GEMINI_MODEL"`
	MaxTokens   int    `mapstructure:"MAX_TOKENS"`

	// Storage Configuration
	DatabaseURL string `mapstructure:"DATABASE_URL"` // empty keeps versions in memory
	CacheSize   int    `mapstructure:"CACHE_SIZE"`   // LRU entries in front of the store

	// Broadcast Configuration
	BroadcastChannel  string        `mapstructure:"BROADCAST_CHANNEL"`
	SubscribeTimeout  time.Duration `mapstructure:"SUBSCRIBE_TIMEOUT"`
	ViewerSendTimeout time.Duration `mapstructure:"VIEWER_SEND_TIMEOUT"`
	BuildTimeout      time.Duration `mapstructure:"BUILD_TIMEOUT"`
	PacingMode        string        `mapstructure:"PACING_MODE"` // "buffered" or "typing"
	PhasePause        time.Duration `mapstructure:"PHASE_PAUSE"`

	// Publishing Configuration (S3 / MinIO), disabled when S3_ENDPOINT is empty
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`

	PublishTimeout time.Duration `mapstructure:"PUBLISH_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":      ":8080",
	"APP_ENV":             "development",
	"OWNER_SECRET_KEY":    "",
	"LLM_PROVIDER":        "openai",
	"OPENAI_API_KEY":      "",
	"OPENAI_MODEL":        "gpt-4o",
	"GEMINI_API_KEY":      "",
	"GEMINI_MODEL":        "gemini-2.5-flash",
	"MAX_TOKENS":          8192,
	"DATABASE_URL":        "",
	"CACHE_SIZE":          64,
	"BROADCAST_CHANNEL":   "canvas-typing",
	"SUBSCRIBE_TIMEOUT":   "5s",
	"VIEWER_SEND_TIMEOUT": "2s",
	"BUILD_TIMEOUT":       "5m",
	"PACING_MODE":         "buffered",
	"PHASE_PAUSE":         "1s",
	"S3_ENDPOINT":         "",
	"S3_REGION":           "us-east-1",
	"S3_ACCESS_KEY":       "",
	"S3_SECRET_KEY":       "",
	"S3_BUCKET":           "canvas-pages",
	"S3_USE_SSL":          false,
	"PUBLISH_TIMEOUT":     "30s",
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", v.ConfigFileUsed())
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}

	if config.OwnerSecretKey == "" {
		log.Println("WARN: OWNER_SECRET_KEY is not set, every owner request will be rejected.")
	}
	return config, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		if c.OpenAIKey == "" {
			log.Println("WARN: OPENAI_API_KEY is not set.")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.PacingMode {
	case "buffered", "typing":
	default:
		return fmt.Errorf("unknown PACING_MODE %q", c.PacingMode)
	}
	if c.BuildTimeout <= 0 {
		return errors.New("BUILD_TIMEOUT must be positive")
	}
	return nil
}
