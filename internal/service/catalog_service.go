package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/internal/metrics"
	"github.com/cypherlabdev/offer-catalog-service/internal/models"
	"github.com/cypherlabdev/offer-catalog-service/pkg/catalog"
)

// CatalogService owns the catalog lifecycle: initial load, refreshes and the snapshot mirror
type CatalogService struct {
	store       *catalog.Store
	cache       SnapshotCache // nil when mirroring is disabled
	metrics     *metrics.Metrics
	initialized atomic.Bool
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(
	store *catalog.Store,
	cache SnapshotCache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger.With().Str("component", "catalog_service").Logger(),
	}
}

// Initialize performs the first refresh. It is called once by the owning shell.
// When a mirror is configured, its snapshot version seeds the store so new
// snapshots number after it. If the feed is unavailable, the store is seeded
// from the mirrored snapshot; the refresh error is still returned.
func (s *CatalogService) Initialize(ctx context.Context) error {
	if !s.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	var cached *models.CachedSnapshot
	if s.cache != nil {
		loaded, err := s.cache.Load(ctx)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Msg("no cached snapshot to fall back on")
		} else {
			cached = loaded
			s.store.SeedVersion(cached.Version)
		}
	}

	err := s.Refresh(ctx)
	if err == nil || cached == nil {
		return err
	}

	if s.store.Restore(cached) {
		s.metrics.SetSnapshotSize(len(cached.Offers))
		s.logger.Warn().
			Err(err).
			Uint64("version", cached.Version).
			Time("refreshed_at", cached.RefreshedAt).
			Msg("initial refresh failed, serving cached snapshot")
	}

	return err
}

// Refresh replaces the snapshot from the feed and mirrors it.
// Mirror failures are logged and never fail the refresh.
func (s *CatalogService) Refresh(ctx context.Context) error {
	result, err := s.store.Refresh(ctx)
	if result.Shared {
		// The caller that started the refresh records it
		return err
	}

	if err != nil {
		kind := string(catalog.KindNetwork)
		var ferr *catalog.FetchError
		if errors.As(err, &ferr) {
			kind = string(ferr.Kind)
		}
		s.metrics.ObserveRefreshFailure(kind, result.Malformed)
		s.logger.Error().
			Err(err).
			Str("kind", kind).
			Msg("catalog refresh failed, keeping previous snapshot")
		return err
	}

	s.metrics.ObserveRefreshSuccess(result.Accepted, result.Malformed, result.Duplicates, time.Now())

	if s.cache != nil {
		if snap := s.store.Snapshot(); snap != nil {
			if err := s.cache.Save(ctx, snap); err != nil {
				s.logger.Warn().
					Err(err).
					Uint64("version", snap.Version).
					Msg("failed to mirror catalog snapshot")
				// Don't fail the refresh on cache errors
			}
		}
	}

	return nil
}

// VisibleOffers returns the offers starting on ref's calendar day
func (s *CatalogService) VisibleOffers(ref time.Time) []models.Offer {
	return s.store.VisibleOffers(ref)
}

// Lookup finds an offer by key in the current snapshot
func (s *CatalogService) Lookup(key models.OfferKey) (models.Offer, bool) {
	return s.store.Lookup(key)
}

// Status reports the current snapshot
func (s *CatalogService) Status() catalog.Status {
	return s.store.Status()
}

// Ready reports whether a snapshot is available to serve
func (s *CatalogService) Ready() bool {
	return s.store.Status().Version > 0
}
