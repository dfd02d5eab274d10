package service

import (
	"context"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// Refresher triggers a catalog refresh
type Refresher interface {
	Refresh(ctx context.Context) error
}

// OfferLookup resolves an offer key against the current catalog snapshot
type OfferLookup interface {
	Lookup(key models.OfferKey) (models.Offer, bool)
}
