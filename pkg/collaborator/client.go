package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

var (
	// ErrUnavailable is raised once all retry attempts against a
	// collaborator are exhausted. Callers classify it as fatal or
	// non-fatal per node.
	ErrUnavailable = errors.New("collaborator unavailable")

	// ErrInvalidRequest covers 4xx replies; these are never retried.
	ErrInvalidRequest = errors.New("collaborator rejected request")
)

const (
	requestTimeout     = 30 * time.Second
	healthcheckTimeout = 5 * time.Second
	maxAttempts        = 3
)

// backoffDelays is the fixed retry schedule between attempts.
var backoffDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Client is a retrying JSON-over-HTTP client for one collaborator service.
// Only transport failures and 5xx replies are retried.
type Client struct {
	baseURL string
	name    string
	http    *http.Client
	logger  *log.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

func NewClient(baseURL, name string, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		name:    name,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// PostJSON sends body to path and decodes the JSON reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.name, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(backoffDelays[attempt-2])
		}

		err := c.doOnce(ctx, path, payload, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInvalidRequest) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		c.logger.Printf("[%s] attempt %d/%d failed: %v", c.name, attempt, maxAttempts, err)
	}

	return fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, c.name, maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, payload []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(bodyBytes), 200))
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidRequest, resp.StatusCode, truncate(string(bodyBytes), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// HealthCheck probes GET /health with a short deadline.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("[%s] health check failed: %v", c.name, err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
