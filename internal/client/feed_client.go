package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/pkg/catalog"
)

// maxResponseBody bounds how much of a response body is read when only a reason is needed
const maxResponseBody = 4 << 10

// FeedClient reads the upstream offer feed
type FeedClient struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// FeedClientConfig holds offer feed configuration
type FeedClientConfig struct {
	BaseURL string        // e.g., "http://127.0.0.1:3333"
	Path    string        // e.g., "/offers"
	Timeout time.Duration // e.g., 10 * time.Second
}

// feedResponse is the feed document: {"results": [...]}
type feedResponse struct {
	Results *[]json.RawMessage `json:"results"`
}

// NewFeedClient creates a new offer feed client
func NewFeedClient(config FeedClientConfig, httpClient *http.Client, logger zerolog.Logger) *FeedClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &FeedClient{
		url:        strings.TrimRight(config.BaseURL, "/") + config.Path,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "feed_client").Logger(),
	}
}

// FetchOffers issues one GET against the feed and returns its raw records.
// Errors are *catalog.FetchError.
func (c *FeedClient) FetchOffers(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &catalog.FetchError{Kind: catalog.KindNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &catalog.FetchError{Kind: catalog.KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("url", c.url).
			Msg("offer feed returned non-success status")
		return nil, &catalog.FetchError{
			Kind:       catalog.KindStatus,
			StatusCode: resp.StatusCode,
			Err:        errors.New(responseReason(resp.StatusCode, body)),
		}
	}

	var doc feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &catalog.FetchError{Kind: catalog.KindMalformedBody, Err: fmt.Errorf("failed to decode feed: %w", err)}
	}
	if doc.Results == nil {
		return nil, &catalog.FetchError{Kind: catalog.KindMalformedBody, Err: errors.New(`feed has no "results" list`)}
	}

	c.logger.Debug().
		Int("records", len(*doc.Results)).
		Msg("fetched offer feed")

	return *doc.Results, nil
}
