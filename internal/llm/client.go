// Package llm provides the OpenAI-compatible client shared by the generator
// and mutator oracles.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.GetTracerProvider().Tracer("promptsmith/llm")

// Config holds the configuration for the LLM client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// Option configures a Config.
type Option func(*Config)

// WithModel sets the default model for chat completions.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithMaxTokens sets the default max tokens for completions.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the HTTP client timeout. Ignored if WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// Client wraps the OpenAI client with configuration metadata.
type Client struct {
	*openai.Client
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewClient creates an OpenAI-compatible client. BaseURL should be the full
// API base URL (e.g. "https://api.openai.com/v1").
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	cfg := &Config{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		APIKey:      apiKey,
		Model:       "gpt-4o-mini",
		MaxTokens:   4096,
		Temperature: 0.7,
		Timeout:     120 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.BaseURL = cfg.BaseURL

	if cfg.HTTPClient != nil {
		openaiCfg.HTTPClient = cfg.HTTPClient
	} else {
		openaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		Client:      openai.NewClientWithConfig(openaiCfg),
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

// CreateChatCompletion wraps the OpenAI client call with an OTel span.
func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ctx, span := tracer.Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.request.max_tokens", req.MaxTokens),
		attribute.Int("llm.request.messages", len(req.Messages)),
	)
	if req.Temperature > 0 {
		span.SetAttributes(attribute.Float64("llm.request.temperature", float64(req.Temperature)))
	}

	resp, err := c.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens),
	)
	if len(resp.Choices) > 0 {
		span.SetAttributes(
			attribute.String("llm.response.finish_reason", string(resp.Choices[0].FinishReason)),
			attribute.Int("llm.response.content_length", len(resp.Choices[0].Message.Content)),
		)
	}

	return resp, nil
}

// Complete is the single-prompt convenience used by the oracles: one user
// message in, the first choice's content out.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: float32(c.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
