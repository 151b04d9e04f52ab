// ABOUTME: LangChain-backed Completer with Groq and Gemini providers
// ABOUTME: Applies a per-call timeout and a single retry on transient errors

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/attack-capital/chat-relay/internal/config"
	"github.com/attack-capital/chat-relay/internal/memory"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"

	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
	retryBackoff       = 200 * time.Millisecond
)

// Client completes chat turns against a configured provider.
type Client struct {
	model       llms.Model
	timeout     time.Duration
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New builds a Client from configuration. The provider name selects the
// upstream: "groq" speaks the OpenAI-compatible API at Groq's endpoint,
// "gemini" uses Google's GenAI API.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "groq":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		model, err = openai.New(
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(baseURL),
			openai.WithToken(cfg.APIKey),
		)
	case "gemini":
		model, err = googleai.New(ctx,
			googleai.WithDefaultModel(cfg.Model),
			googleai.WithAPIKey(cfg.APIKey),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}

	return newClient(model, cfg.Timeout, logger), nil
}

// NewWithModel wraps an existing model. Used by tests and by callers that
// construct their own langchaingo model.
func NewWithModel(model llms.Model, timeout time.Duration, logger *slog.Logger) *Client {
	return newClient(model, timeout, logger)
}

func newClient(model llms.Model, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		model:       model,
		timeout:     timeout,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      logger.With("component", "llm"),
	}
}

// Complete implements Completer. Transient upstream failures (timeouts,
// rate limits, 5xx) are retried exactly once before giving up.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []memory.Turn, message string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := buildMessages(systemPrompt, history, message)

	var reply string
	backoff := retry.WithMaxRetries(1, retry.NewConstant(retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.model.GenerateContent(ctx, messages,
			llms.WithTemperature(c.temperature),
			llms.WithMaxTokens(c.maxTokens),
		)
		if err != nil {
			if isTransient(err) {
				c.logger.Warn("transient llm failure, will retry", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty response from provider")
		}
		reply = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		if isRateLimited(err) {
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	return reply, nil
}

// buildMessages assembles the upstream payload: the persona's system prompt,
// prior turns oldest-first, and the new user message last.
func buildMessages(systemPrompt string, history []memory.Turn, message string) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		role := llms.ChatMessageTypeHuman
		if turn.Role == memory.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Text))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))
	return messages
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "too many requests",
		"500", "502", "503", "504",
		"timeout", "deadline exceeded", "connection refused", "connection reset",
		"overloaded", "unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "quota")
}
