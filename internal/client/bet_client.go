package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// RequestIDHeader carries the selection attempt id to the bet endpoint
const RequestIDHeader = "X-Request-ID"

// StatusError is returned when the bet endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bet endpoint returned status %d: %s", e.StatusCode, e.Reason)
}

// BetClient submits selected offers to the bet-placement endpoint
type BetClient struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// BetClientConfig holds bet endpoint configuration
type BetClientConfig struct {
	BaseURL string        // e.g., "http://127.0.0.1:3333"
	Path    string        // e.g., "/bets"
	Timeout time.Duration // e.g., 30 * time.Second
}

// NewBetClient creates a new bet-placement client
func NewBetClient(config BetClientConfig, httpClient *http.Client, logger zerolog.Logger) *BetClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &BetClient{
		url:        strings.TrimRight(config.BaseURL, "/") + config.Path,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "bet_client").Logger(),
	}
}

// PlaceBet POSTs the full offer as JSON. It makes exactly one request.
// A non-2xx answer is returned as *StatusError; any other error is a transport failure.
func (c *BetClient) PlaceBet(ctx context.Context, offer *models.Offer, requestID string) (*models.PlacementResult, error) {
	body, err := json.Marshal(offer)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal offer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	c.logger.Debug().
		Str("request_id", requestID).
		Str("event_id", offer.EventID).
		Str("market", offer.MarketKey).
		Msg("submitting bet")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Reason:     responseReason(resp.StatusCode, respBody),
		}
	}

	return &models.PlacementResult{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(respBody)),
	}, nil
}

// responseReason extracts a human-readable reason from an error response:
// the "error" or "message" field of a JSON body, else the trimmed body, else the status text.
func responseReason(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
