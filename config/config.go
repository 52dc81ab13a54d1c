package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config carries everything a single analysis run needs. It is built once
// from the environment, validated at run start, and handed to the pipeline
// entry point; nothing downstream reads the environment directly.
type Config struct {
	OpenAIAPIKey string

	RedditClientID     string
	RedditClientSecret string

	// Collection knobs.
	TimeWindow       time.Duration
	MaxItemsPerSource int
	CollectorWorkers int

	// Optional collaborators; empty means the stage is skipped.
	ValkeyAddress string
	KafkaBroker   string
	AWSEndpoint   string

	PublicReports bool
}

var (
	ErrMissingOpenAIKey   = errors.New("OPENAI_API_KEY is required for discovery and classification")
	ErrMissingRedditCreds = errors.New("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
)

// FromEnv builds a Config from the process environment.
func FromEnv() Config {
	return Config{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		TimeWindow:         envDuration("COLLECT_TIME_WINDOW", 24*time.Hour),
		MaxItemsPerSource:  envInt("COLLECT_MAX_ITEMS", 100),
		CollectorWorkers:   envInt("COLLECT_WORKERS", 3),
		ValkeyAddress:      os.Getenv("VALKEY_INIT_ADDRESS"),
		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		AWSEndpoint:        os.Getenv("AWS_ENDPOINT"),
		PublicReports:      os.Getenv("REPORTS_PUBLIC") == "true",
	}
}

// Validate fails fast when a credential for a required stage is absent.
// Optional collaborators (valkey, kafka) are allowed to be unset.
func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return ErrMissingOpenAIKey
	}
	if c.RedditClientID == "" || c.RedditClientSecret == "" {
		return ErrMissingRedditCreds
	}
	return nil
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
