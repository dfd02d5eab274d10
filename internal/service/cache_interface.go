package service

import (
	"context"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// SnapshotCache is an interface that abstracts the snapshot mirror
// This allows for easier testing and mocking
type SnapshotCache interface {
	Save(ctx context.Context, snapshot *models.CachedSnapshot) error
	Load(ctx context.Context) (*models.CachedSnapshot, error)
	Ping(ctx context.Context) error
	Close() error
}
