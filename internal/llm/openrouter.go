package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// Client talks to the OpenRouter chat-completions API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      retryPolicy
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    defaultOpenRouterURL,
		retry:      retryPolicy{maxAttempts: retryMax, baseDelay: baseDelay, maxDelay: maxDelay},
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY is missing")
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("Content-Type", "application/json")
	header.Set("HTTP-Referer", "https://github.com/KaramelBytes/tidyqa-cli")
	header.Set("X-Title", "TidyQA")

	var out GenerateResponse
	err = c.retry.do(ctx, c.httpClient, c.baseURL+"/chat/completions", payload, header,
		func(err error) error { return fmt.Errorf("http request: %w", err) },
		func(resp *http.Response) (bool, time.Duration, error) {
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				apiErr := readAPIError(resp)
				transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
				if !transient {
					return false, 0, classifyAPIError(apiErr, resp)
				}
				var wait time.Duration
				if ra := resp.Header.Get("Retry-After"); ra != "" {
					if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
						wait = time.Duration(secs) * time.Second
					}
				}
				return true, wait, classifyAPIError(apiErr, resp)
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return false, 0, fmt.Errorf("decode response: %w", err)
			}
			out.RequestID = extractRequestID(resp)
			return false, 0, nil
		})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
