// Package search wraps the hosted web search provider.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/askweb/askweb/internal/config"
	"github.com/askweb/askweb/internal/domain"
	"go.uber.org/zap"
)

// Client calls the web search API. One Search is one outbound network call;
// there is no retry, a failed call fails the stage.
type Client struct {
	apiKey            string
	baseURL           string
	maxResults        int
	includeRawContent bool
	httpClient        *http.Client
	logger            *zap.Logger
}

// NewClient creates a search client from configuration.
func NewClient(cfg config.SearchConfig, logger *zap.Logger) *Client {
	return &Client{
		apiKey:            cfg.APIKey,
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		maxResults:        cfg.MaxResults,
		includeRawContent: cfg.IncludeRawContent,
		httpClient:        &http.Client{Timeout: cfg.Timeout},
		logger:            logger,
	}
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type searchResponse struct {
	Results *[]searchResult `json:"results"`
}

type searchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}

// Search posts a query to the search provider and returns its results in
// provider order, capped at the configured page size.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	payload, err := json.Marshal(searchRequest{
		APIKey:            c.apiKey,
		Query:             query,
		MaxResults:        c.maxResults,
		IncludeRawContent: c.includeRawContent,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUnreachableError("search", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUnreachableError("search", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewUpstreamError("search", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewMalformedResponse("search", err.Error())
	}
	if parsed.Results == nil {
		return nil, domain.NewMalformedResponse("search", "response is missing the results field")
	}

	results := make([]domain.SearchResult, 0, len(*parsed.Results))
	for _, r := range *parsed.Results {
		results = append(results, domain.SearchResult{
			Title:      r.Title,
			URL:        r.URL,
			Content:    r.Content,
			RawContent: r.RawContent,
			Score:      r.Score,
		})
		if len(results) >= c.maxResults {
			break
		}
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}
