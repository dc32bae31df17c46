package completion

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/portfolio-advisor/internal/config"
	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
)

const providerOpenAI = "openai"

// ErrEmptyCompletion is returned when the service replies without choices
var ErrEmptyCompletion = errors.New("empty completion response")

// OpenAIClient calls an OpenAI-compatible chat completions endpoint
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	metrics     metrics.MetricsService
}

// NewOpenAIClient creates a client from the completion configuration
func NewOpenAIClient(cfg *config.CompletionConfig, ms metrics.MetricsService) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		metrics:     ms,
	}
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the first choice.
// Every failure is a CompletionServiceFailure.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	reply, err := c.complete(ctx, prompt)
	if c.metrics != nil {
		c.metrics.ObserveCompletionDuration(c.model, time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncCompletionErrors(c.model, classifyError(err))
		}
		logging.FromContext(ctx).WithError(err).WithField("model", c.model).Error("completion request failed")
		return "", apperrors.NewCompletionError(providerOpenAI, err)
	}

	return reply, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func classifyError(err error) string {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &reqErr):
		return "api_error"
	default:
		return "transport_error"
	}
}
