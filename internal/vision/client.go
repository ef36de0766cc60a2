// Package vision sends rendered page fragments to a vision-capable chat
// model and parses the structured extraction payload it returns.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/sagliklab/tahlil/internal/merge"
	"github.com/sagliklab/tahlil/internal/render"
)

const (
	defaultModel           = "gpt-4o"
	defaultMaxOutputTokens = 16384
	defaultMaxRetries      = 2
	defaultRetryDelay      = 1 * time.Second
	defaultTimeout         = 120 * time.Second
)

// Config holds configuration for the extraction client.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	MaxRetries      int           // retries after the first attempt; negative selects the default
	RetryDelay      time.Duration // base delay, doubled per retry
	Timeout         time.Duration
	BaseURL         string       // optional (tests)
	HTTPClient      *http.Client // optional (tests)
	Logger          *slog.Logger
}

// Client invokes the model service once per fragment with bounded retry.
type Client struct {
	model           string
	maxOutputTokens int
	maxRetries      int
	retryDelay      time.Duration
	client          openai.Client
	log             *slog.Logger
}

// NewClient creates an extraction client using the official OpenAI SDK.
// SDK-internal retries are disabled; retry policy lives here so the
// transient-status set and backoff schedule stay explicit.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	// Zero is a meaningful retry count (single attempt), so only a
	// negative value falls back to the default.
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		maxRetries:      cfg.MaxRetries,
		retryDelay:      cfg.RetryDelay,
		client:          openai.NewClient(opts...),
		log:             cfg.Logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// CallError is a hard model-service failure for one fragment, carrying a
// curated message (never the raw upstream body, which can be HTML).
type CallError struct {
	StatusCode int
	Message    string
}

func (e *CallError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("model service error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("model service error (status %d)", e.StatusCode)
}

// transient reports whether a fragment call should be retried.
func transient(err error) bool {
	var callErr *CallError
	if !errors.As(err, &callErr) {
		return false
	}
	switch callErr.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	}
	return false
}

// Invoke sends one fragment to the model service and parses its response.
// Transient statuses are retried with exponential backoff up to
// MaxRetries times; other statuses fail immediately. A syntactically
// invalid payload is not an error: it returns (nil, nil) so one garbled
// fragment never aborts the document.
func (c *Client) Invoke(ctx context.Context, frag render.Fragment) (*merge.FragmentResult, error) {
	requestID := uuid.New().String()[:8]
	log := c.log.With("request_id", requestID, "page", frag.PageIndex+1, "fragment", frag.Label())

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(frag.PNG)

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		MaxTokens: openai.Int(int64(c.maxOutputTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(extractionPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: string(frag.Detail),
				}),
			}),
		},
	}

	var content string
	start := time.Now()
	err := retry.Do(
		func() error {
			resp, err := c.client.Chat.Completions.New(ctx, params)
			if err != nil {
				return mapCallError(err)
			}
			if len(resp.Choices) == 0 {
				return &CallError{StatusCode: http.StatusOK, Message: "empty choices in response"}
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(transient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Warn("retrying fragment", "attempt", attempt+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	if content == "" {
		log.Warn("empty fragment content")
		return nil, nil
	}

	result := parseResult(content, log)
	if result == nil {
		return nil, nil
	}

	log.Debug("fragment extracted",
		"tests", len(result.Tests), "duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// mapCallError converts SDK errors into CallError, keeping only the
// API-level message. Non-JSON upstream bodies (gateway HTML on 502/503)
// yield an empty message rather than leaking into logs or callers.
func mapCallError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &CallError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return fmt.Errorf("model request failed: %w", err)
}
