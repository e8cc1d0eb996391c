// Package anthropic provides a completion provider backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scholarqa/internal/domain"
	"github.com/kailas-cloud/scholarqa/internal/metrics"
)

const providerName = "anthropic"

// Completer generates answers via the Anthropic Messages API.
type Completer struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewCompleter creates an Anthropic completion provider.
func NewCompleter(cfg *Config) *Completer {
	// Retries belong to the pipeline's retry wrapper, not the SDK.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &Completer{
		client: &client,
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete sends the prompt with its system instruction and returns the
// concatenated text blocks of the response.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System:      []anthropic.TextBlockParam{{Text: req.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	start := time.Now()

	resp, err := c.client.Messages.New(ctx, params)

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		metrics.CompletionErrorsTotal.WithLabelValues(providerName, c.model, "api_error").Inc()
		return domain.CompletionResult{}, parseAPIError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	if sb.Len() == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		metrics.CompletionErrorsTotal.WithLabelValues(providerName, c.model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionUnavailable)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(providerName, c.model).Observe(duration.Seconds())

	promptTokens := int(resp.Usage.InputTokens)
	completionTokens := int(resp.Usage.OutputTokens)
	if promptTokens+completionTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "prompt").
			Add(float64(promptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "completion").
			Add(float64(completionTokens))
	}

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", promptTokens+completionTokens),
	)

	return domain.CompletionResult{
		Text:             sb.String(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}, nil
}

// HealthCheck verifies API availability with a minimal one-token request.
func (c *Completer) HealthCheck(ctx context.Context) error {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic ping: %w", err)
	}
	return nil
}

// parseAPIError wraps provider failures with domain.ErrCompletionUnavailable.
func parseAPIError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %w",
			apiErr.StatusCode, domain.ErrCompletionUnavailable)
	}
	return fmt.Errorf("completion request failed: %w", domain.ErrCompletionUnavailable)
}
