package commentary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
)

const (
	requestTimeout = 60 * time.Second
	maxAttempts    = 3
)

// AIClient writes recaps with an OpenAI-compatible chat API. Grok is reached
// through the xAI endpoint with the same client.
type AIClient struct {
	client     *openai.Client
	provider   string
	model      string
	maxTokens  int
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewAIClient creates a client for provider using the matching API key.
func NewAIClient(provider, openaiAPIKey, xaiAPIKey string, logger *slog.Logger) (*AIClient, error) {
	var cfg openai.ClientConfig
	model := DefaultGrokModel

	switch provider {
	case ProviderOpenAI:
		if openaiAPIKey == "" {
			return nil, NewValidationError("OPENAI_API_KEY", "environment variable not set")
		}
		cfg = openai.DefaultConfig(openaiAPIKey)
		model = DefaultOpenAIModel
	case ProviderGrok:
		if xaiAPIKey == "" {
			return nil, NewValidationError("XAI_API_KEY", "environment variable not set")
		}
		cfg = openai.DefaultConfig(xaiAPIKey)
		cfg.BaseURL = xaiBaseURL
	default:
		return nil, NewValidationError("COMMENTARY_PROVIDER", fmt.Sprintf("unknown provider %q", provider))
	}

	return newAIClient(cfg, provider, model, logger), nil
}

func newAIClient(cfg openai.ClientConfig, provider, model string, logger *slog.Logger) *AIClient {
	return &AIClient{
		client:    openai.NewClientWithConfig(cfg),
		provider:  provider,
		model:     model,
		maxTokens: DefaultMaxTokens,
		logger:    logger,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Recap implements Commentator.
func (c *AIClient) Recap(ctx context.Context, s Summary) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	c.logger.InfoContext(ctx, "requesting match recap",
		"provider", c.provider,
		"model", c.model,
		"match_id", s.MatchID)

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: CommentatorPersona},
			{Role: openai.ChatMessageRoleUser, Content: s.Prompt()},
		},
	}

	var content string
	op := func() error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			apiErr := c.wrapError(err)
			if !apiErr.Temporary() {
				return backoff.Permanent(apiErr)
			}
			c.logger.WarnContext(ctx, "recap request failed, retrying",
				"provider", c.provider,
				"status_code", apiErr.StatusCode,
				"error", err)
			return apiErr
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(NewAPIError(c.provider, 0, "no choices in response", nil))
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		c.logger.ErrorContext(ctx, "recap request failed", "provider", c.provider, "error", err)
		return "", err
	}
	if content == "" {
		return "", NewAPIError(c.provider, 0, "empty recap", nil)
	}

	c.logger.InfoContext(ctx, "received match recap",
		"provider", c.provider,
		"response_length", len(content))
	return content, nil
}

func (c *AIClient) wrapError(err error) *APIError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewAPIError(c.provider, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewAPIError(c.provider, reqErr.HTTPStatusCode, "request failed", err)
	}
	return NewAPIError(c.provider, 0, "request failed", err)
}

// Fallback tries Primary and falls back to Secondary on error.
type Fallback struct {
	Primary   Commentator
	Secondary Commentator
	Logger    *slog.Logger
}

// Recap implements Commentator.
func (f Fallback) Recap(ctx context.Context, s Summary) (string, error) {
	text, err := f.Primary.Recap(ctx, s)
	if err == nil {
		return text, nil
	}
	f.Logger.WarnContext(ctx, "falling back to template recap", "match_id", s.MatchID, "error", err)
	return f.Secondary.Recap(ctx, s)
}

// New returns the commentator for provider. Without a usable AI provider it
// returns the template commentator.
func New(provider, openaiAPIKey, xaiAPIKey string, logger *slog.Logger) Commentator {
	if provider == "" || provider == ProviderTemplate {
		return Template{}
	}
	ai, err := NewAIClient(provider, openaiAPIKey, xaiAPIKey, logger)
	if err != nil {
		logger.Warn("AI commentary disabled", "provider", provider, "error", err)
		return Template{}
	}
	return Fallback{Primary: ai, Secondary: Template{}, Logger: logger}
}
