package service

import (
	"context"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// BetPlacer is an interface that abstracts the bet-placement endpoint
// This allows for easier testing and mocking
type BetPlacer interface {
	PlaceBet(ctx context.Context, offer *models.Offer, requestID string) (*models.PlacementResult, error)
}
