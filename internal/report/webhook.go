// Package report delivers finished run results to an HTTP webhook.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config holds the webhook endpoint settings.
type Config struct {
	URL       string
	Method    string // default POST
	Headers   map[string]string
	Timeout   time.Duration // overall budget across all attempts
	AuthType  string        // none, bearer, api-key
	AuthToken string
}

// Client posts run results with retry on transient failures.
type Client struct {
	httpClient  *http.Client
	config      Config
	retryConfig RetryConfig
	logger      *slog.Logger
}

func NewClient(config Config, retryConfig *RetryConfig, logger *slog.Logger) *Client {
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	rc := DefaultRetryConfig()
	if retryConfig != nil {
		rc = *retryConfig
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		config:      config,
		retryConfig: rc,
		logger:      logger,
	}
}

// Send delivers the payload, retrying transient failures with exponential
// backoff until the overall timeout or the retry budget runs out.
func (c *Client) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt, c.retryConfig)
			c.logger.Warn("retrying webhook delivery",
				"attempt", attempt, "max", c.retryConfig.MaxRetries, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("webhook timeout after %d attempts: %w", attempt, ctx.Err())
			}
		}

		statusCode, err := c.post(ctx, body)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			c.logger.Info("webhook delivered", "status", statusCode)
			return nil
		}

		if err != nil {
			lastErr = fmt.Errorf("attempt %d failed: %w", attempt+1, err)
		} else {
			lastErr = fmt.Errorf("attempt %d failed with status %d", attempt+1, statusCode)
		}

		if statusCode > 0 && !isRetryableStatus(statusCode) {
			c.logger.Error("webhook rejected", "status", statusCode)
			return lastErr
		}
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", c.retryConfig.MaxRetries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, c.config.Method, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	switch c.config.AuthType {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case "api-key":
		req.Header.Set("X-API-Key", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
