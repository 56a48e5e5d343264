package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	// BaseURL is the cloud host, e.g. https://example.feedhenry.com
	BaseURL string

	// Timeout bounds each act call (default: 45s)
	Timeout time.Duration

	// Headers are added to every request (app keys, auth tokens)
	Headers map[string]string
}

// HTTPClient calls act endpoints as POST {BaseURL}/cloud/{act} with a JSON body.
type HTTPClient struct {
	baseURL string
	headers map[string]string
	client  *http.Client
}

// NewHTTPClient returns a Service backed by HTTP.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: cfg.Headers,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// List implements Service.
func (c *HTTPClient) List(ctx context.Context, act string) (*ListResponse, error) {
	var resp ListResponse
	if err := c.invoke(ctx, act, struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ActError{Act: act, Message: resp.Error}
	}
	return &resp, nil
}

// Read implements Service.
func (c *HTTPClient) Read(ctx context.Context, act string, req DetailRequest) (*DetailResponse, error) {
	var resp DetailResponse
	if err := c.invoke(ctx, act, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ActError{Act: act, Message: resp.Error}
	}
	return &resp, nil
}

func (c *HTTPClient) invoke(ctx context.Context, act string, body, out any) error {
	if act == "" {
		return fmt.Errorf("act cannot be empty")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", act, err)
	}

	url := fmt.Sprintf("%s/cloud/%s", c.baseURL, act)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", act, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("act %s request failed: %w", act, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", act, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ActError{Act: act, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", act, err)
	}
	return nil
}
