// Package search wraps the Serper.dev web search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://google.serper.dev/search"

// Hit is one organic search result.
type Hit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client calls the Serper search API. It is a single-call external
// collaborator; no retries or paging.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Params configures a search Client.
type Params struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a Serper search client.
func NewClient(params Params) *Client {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := params.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:     params.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search returns up to numResults organic hits for the query.
func (c *Client) Search(ctx context.Context, query string, numResults int) ([]Hit, error) {
	if c.apiKey == "" {
		return nil, errors.New("search api key not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"q":   query,
		"num": numResults,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach search provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var body struct {
		Organic []Hit `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return body.Organic, nil
}
