package openai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"resumegen/internal/llm"
	"resumegen/internal/models"
)

const systemPrompt = "You are a professional resume writer and career coach."

// Client calls the OpenAI chat completions API.
type Client struct {
	client *openai.Client
	config *Config
}

func NewClient(config *Config) *Client {
	return &Client{
		client: openai.NewClient(config.APIKey),
		config: config,
	}
}

func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Code:     llm.ErrCodeServiceDown,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return &models.GenerationResponse{
		Content:   content,
		RequestID: requestID,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       "openai",
			Model:          c.config.Model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return "openai"
}
