package aisearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SearchAPIClient — запасной сторонний поисковый API на случай отказа
// генеративной модели. Контракт непрозрачный: GET ?q=...&key=... с JSON
// ответом {"results": [{"title", "url", "snippet"}]}.
type SearchAPIClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewSearchAPIClient(endpoint, apiKey string) *SearchAPIClient {
	return &SearchAPIClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *SearchAPIClient) Available() bool {
	return c.endpoint != ""
}

func (c *SearchAPIClient) Search(ctx context.Context, query string) ([]Card, error) {
	if !c.Available() {
		return nil, fmt.Errorf("search API not configured")
	}

	requestURL := c.endpoint + "?q=" + url.QueryEscape(query)
	if c.apiKey != "" {
		requestURL += "&key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var wrapped struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	cards := make([]Card, 0, len(wrapped.Results))
	for _, r := range wrapped.Results {
		cards = append(cards, Card{
			Title:     r.Title,
			Content:   r.Snippet,
			Citations: []string{r.URL},
		})
	}
	return cards, nil
}
