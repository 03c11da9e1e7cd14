package openai

import (
	"errors"
	"os"
	"strconv"
)

// Config holds OpenAI-specific configuration.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

func NewConfig() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is required")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini" // default model
	}

	maxTokens := 800
	if v := os.Getenv("OPENAI_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("OPENAI_MAX_TOKENS must be a positive integer")
		}
		maxTokens = n
	}

	return &Config{
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: maxTokens,
	}, nil
}
