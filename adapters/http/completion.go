// Package http provides the HTTP edge adapters: the upstream completion
// client and the public chat handlers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hearthchat/hearth/adapters/metrics"
	"github.com/hearthchat/hearth/ports"
)

// CompletionClient forwards user messages to the upstream completion API.
type CompletionClient struct {
	client       *http.Client
	endpoint     string
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
	metrics      *metrics.Collector
}

// CompletionConfig contains configuration for the completion client.
type CompletionConfig struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	Metrics      *metrics.Collector
}

// NewCompletionClient creates a new upstream completion client.
func NewCompletionClient(cfg CompletionConfig) *CompletionClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &CompletionClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		metrics:      cfg.Metrics,
	}
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionPayload struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the user message upstream and returns the assistant reply.
// One fallback retry covers transport failures and 5xx responses; upstream
// error detail is logged by the caller, never returned to end users.
func (c *CompletionClient) Complete(ctx context.Context, message string) (string, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.CompletionDuration.Observe(time.Since(start).Seconds())
		}
	}()

	body, err := json.Marshal(completionPayload{
		Model: c.model,
		Messages: []completionMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	reply, retryable, err := c.complete(ctx, body)
	if err == nil {
		return reply, nil
	}
	if !retryable || ctx.Err() != nil {
		return "", err
	}

	if c.metrics != nil {
		c.metrics.CompletionRetries.Inc()
	}
	reply, _, err = c.complete(ctx, body)
	return reply, err
}

// complete runs one upstream round trip. The second return value reports
// whether the failure is worth the fallback retry (transport errors and 5xx).
func (c *CompletionClient) complete(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.CompletionErrors.WithLabelValues("transport").Inc()
		}
		return "", true, fmt.Errorf("execute completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.metrics != nil {
			c.metrics.CompletionErrors.WithLabelValues("status").Inc()
		}
		retryable := resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("completion upstream returned %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", false, fmt.Errorf("completion upstream returned no reply")
	}

	return parsed.Choices[0].Message.Content, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Close releases idle upstream connections.
func (c *CompletionClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// Ensure interface compliance.
var _ ports.Completer = (*CompletionClient)(nil)
