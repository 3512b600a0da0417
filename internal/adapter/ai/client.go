// Package ai implements the AI backend client against an OpenAI-compatible
// chat completions API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/pkg/textx"
)

// Options configure the client. BaseURL points at any OpenAI-compatible
// endpoint (OpenRouter, a local proxy, or the real thing).
type Options struct {
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	BackoffElapsed  time.Duration
	transientTries  uint64
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 10 * time.Second
	}
	if o.BackoffElapsed <= 0 {
		o.BackoffElapsed = 30 * time.Second
	}
	if o.transientTries == 0 {
		o.transientTries = 2
	}
	return o
}

// Client implements domain.AIClient.
type Client struct {
	opts Options
	hc   *http.Client
}

// New builds a Client. The HTTP timeout covers a single attempt; the caller's
// context bounds the whole call including retries.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		opts: opts,
		hc:   &http.Client{Timeout: opts.Timeout},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate requests a chat completion and returns the message content,
// truncated to maxChars. Transient failures retry up to twice with
// exponential backoff; model-level rejections do not retry.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, maxChars int) (string, error) {
	if c.opts.APIKey == "" {
		return "", fmt.Errorf("op=ai.Generate: %w: API key missing", domain.ErrInvalidArgument)
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: maxTokensFor(maxChars),
	})
	if err != nil {
		return "", fmt.Errorf("op=ai.Generate: %w", err)
	}

	start := time.Now()
	var content string
	attempt := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			strings.TrimRight(c.opts.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

		resp, doErr := c.hc.Do(req)
		if doErr != nil {
			return fmt.Errorf("op=ai.Generate: %w", doErr)
		}
		defer func() { _ = resp.Body.Close() }()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return fmt.Errorf("op=ai.Generate read: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("op=ai.Generate status=%d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("op=ai.Generate status=%d body=%s: %w",
				resp.StatusCode, textx.Truncate(string(body), 200), domain.ErrSourceUnavailable))
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("op=ai.Generate decode: %w", err))
		}
		if parsed.Error != nil {
			return backoff.Permanent(fmt.Errorf("op=ai.Generate model error: %s", parsed.Error.Message))
		}
		if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
			return backoff.Permanent(fmt.Errorf("op=ai.Generate: empty completion"))
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.opts.BackoffInitial
	expo.MaxInterval = c.opts.BackoffMax
	expo.MaxElapsedTime = c.opts.BackoffElapsed
	err = backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(expo, c.opts.transientTries), ctx))

	observability.AIRequestDuration.WithLabelValues(c.opts.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.AIRequestsTotal.WithLabelValues(c.opts.Model, "error").Inc()
		slog.Warn("ai completion failed", slog.String("model", c.opts.Model), slog.Any("error", err))
		return "", err
	}
	observability.AIRequestsTotal.WithLabelValues(c.opts.Model, "ok").Inc()

	if maxChars > 0 {
		content = textx.Truncate(content, maxChars)
	}
	return content, nil
}

// Healthy probes the models listing with a short deadline. Any 2xx counts.
func (c *Client) Healthy(ctx context.Context) bool {
	if c.opts.APIKey == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet,
		strings.TrimRight(c.opts.BaseURL, "/")+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// maxTokensFor converts a character bound to a generous token bound.
func maxTokensFor(maxChars int) int {
	if maxChars <= 0 {
		return 0
	}
	return maxChars/3 + 16
}
