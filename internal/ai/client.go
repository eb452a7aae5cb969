package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client calls an OpenAI-compatible chat-completion endpoint. Failed
// requests are retried a fixed number of times with a fixed delay between
// attempts; every failure class is treated the same.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	maxAttempts int
	retryDelay  time.Duration

	// sleep is swappable in tests
	sleep func(time.Duration)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Choice struct {
	Message Message `json:"message"`
}

type CompletionResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// NewClient builds a client with the default endpoint and sane fallbacks
// for zero-valued retry settings.
func NewClient(apiKey string, httpTimeout time.Duration, maxAttempts int, retryDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: httpTimeout},
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		sleep:       time.Sleep,
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, maxAttempts int, retryDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, maxAttempts, retryDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// Complete sends a single chat-completion request and returns the first
// choice's message content. A 200 response missing the expected fields
// yields an empty string rather than an error. Transport errors and non-2xx
// statuses are retried up to the attempt ceiling with a fixed delay; the
// last error is returned once attempts are exhausted.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("api key is missing")
	}
	if req.Model == "" {
		return "", errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt > 1 {
			c.sleep(c.retryDelay)
		}
		text, err := c.once(ctx, endpoint, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) once(ctx context.Context, endpoint string, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var raw map[string]any
		if json.Unmarshal(body, &raw) == nil {
			if v, ok := raw["error"].(map[string]any); ok {
				if msg, ok := v["message"].(string); ok {
					apiErr.Message = msg
				}
			}
		}
		return "", apiErr
	}

	// Lenient extraction: a 200 body missing choices/message/content
	// produces empty text, not an error.
	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
