package directus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Health is the payload of /server/health.
type Health struct {
	Status string `json:"status"`
}

// Ready reports whether the instance considers itself healthy.
func (h Health) Ready() bool {
	return h.Status == "ok" || h.Status == "warn"
}

// Health calls /server/health. The endpoint answers without the data
// envelope, so it bypasses doRequest.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/server/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	var h Health
	_ = json.Unmarshal(body, &h)
	if resp.StatusCode >= 300 {
		if h.Status == "" {
			h.Status = "error"
		}
		return &h, newAPIError(http.MethodGet, "/server/health", resp.StatusCode, body)
	}
	if h.Status == "" {
		h.Status = "ok"
	}
	return &h, nil
}

// Ping calls /server/ping, which answers "pong" as plain text.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/server/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(http.MethodGet, "/server/ping", resp.StatusCode, body)
	}
	return nil
}
