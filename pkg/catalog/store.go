// Package catalog holds the current snapshot of offers and the rules for what is shown.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
	"github.com/cypherlabdev/offer-catalog-service/pkg/offer"
)

const refreshKey = "refresh"

// Source reads the raw records of the upstream offer feed
type Source interface {
	FetchOffers(ctx context.Context) ([]json.RawMessage, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context) ([]json.RawMessage, error)

// FetchOffers calls f(ctx)
func (f SourceFunc) FetchOffers(ctx context.Context) ([]json.RawMessage, error) {
	return f(ctx)
}

// StoreOptions holds catalog store parameters
type StoreOptions struct {
	MaxMalformedRatio float64 // Refresh fails when dropped/total exceeds this (0.5 = 50%)
}

// RefreshResult describes a refresh that replaced the snapshot
type RefreshResult struct {
	Version    uint64
	Accepted   int
	Malformed  int
	Duplicates int  // Offers whose key was already taken; lookup returns the later one
	Shared     bool // Result came from a refresh another caller started
}

// Status describes the snapshot currently held
type Status struct {
	Version       uint64    `json:"version"`
	Size          int       `json:"size"`
	RefreshedAt   time.Time `json:"refreshed_at"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	LastError     string    `json:"last_error,omitempty"`
}

// snapshot is immutable once published
type snapshot struct {
	version     uint64
	refreshedAt time.Time
	offers      []*models.Offer
	index       map[models.OfferKey]*models.Offer
}

// Store holds the current catalog snapshot.
// The snapshot is replaced wholesale and never modified in place, so readers
// never observe a partially built index.
type Store struct {
	source            Source
	maxMalformedRatio float64
	current           atomic.Pointer[snapshot]
	baseVersion       atomic.Uint64 // Version numbering continues from here while the store is empty
	group             singleflight.Group
	now               func() time.Time
	logger            zerolog.Logger

	mu            sync.Mutex
	lastAttemptAt time.Time
	lastErr       error
}

// NewStore creates an empty catalog store
func NewStore(source Source, opts StoreOptions, logger zerolog.Logger) *Store {
	return &Store{
		source:            source,
		maxMalformedRatio: opts.MaxMalformedRatio,
		now:               time.Now,
		logger:            logger.With().Str("component", "catalog_store").Logger(),
	}
}

// Refresh fetches the feed and replaces the snapshot if the fetch and parse succeed.
// A failed refresh leaves the previous snapshot intact. Calls that arrive while
// a refresh is running wait for it and share its result. The shared fetch does
// not stop when the starting caller's ctx is canceled; it is bounded by the
// source's own timeout.
func (s *Store) Refresh(ctx context.Context) (RefreshResult, error) {
	leader := false
	v, err, shared := s.group.Do(refreshKey, func() (interface{}, error) {
		leader = true
		return s.refresh(context.WithoutCancel(ctx))
	})

	result, _ := v.(RefreshResult)
	result.Shared = shared && !leader
	return result, err
}

func (s *Store) refresh(ctx context.Context) (RefreshResult, error) {
	records, err := s.source.FetchOffers(ctx)
	if err != nil {
		ferr := asFetchError(err)
		s.recordAttempt(ferr)
		return RefreshResult{}, ferr
	}

	offers, malformed := offer.ParseAll(records)
	result := RefreshResult{Accepted: len(offers), Malformed: len(malformed)}

	for _, merr := range malformed {
		s.logger.Warn().
			Int("index", merr.Index).
			Str("field", merr.Field).
			Str("reason", merr.Reason).
			Msg("dropping malformed offer")
	}

	if len(records) > 0 {
		ratio := float64(len(malformed)) / float64(len(records))
		if ratio > s.maxMalformedRatio {
			ferr := &FetchError{
				Kind: KindTooManyMalformed,
				Err:  fmt.Errorf("%d of %d records malformed", len(malformed), len(records)),
			}
			s.recordAttempt(ferr)
			return result, ferr
		}
	}

	version := s.baseVersion.Load() + 1
	if prev := s.current.Load(); prev != nil {
		version = prev.version + 1
	}

	next, duplicates := newSnapshot(version, s.now(), offers)
	s.current.Store(next)
	s.recordAttempt(nil)

	result.Version = version
	result.Duplicates = duplicates

	if duplicates > 0 {
		s.logger.Warn().
			Int("duplicates", duplicates).
			Uint64("version", version).
			Msg("feed repeated offer keys, later offers win on lookup")
	}

	s.logger.Info().
		Uint64("version", version).
		Int("accepted", result.Accepted).
		Int("malformed", result.Malformed).
		Msg("catalog snapshot replaced")

	return result, nil
}

// SeedVersion makes the first snapshot of an empty store number after version,
// so versions keep increasing across process restarts. It has no effect once
// the store holds a snapshot.
func (s *Store) SeedVersion(version uint64) {
	if s.current.Load() != nil {
		return
	}
	for {
		base := s.baseVersion.Load()
		if version <= base || s.baseVersion.CompareAndSwap(base, version) {
			return
		}
	}
}

// Restore seeds an empty store with a previously accepted snapshot.
// It returns false and changes nothing if the store already holds a snapshot.
func (s *Store) Restore(cached *models.CachedSnapshot) bool {
	offers := make([]*models.Offer, len(cached.Offers))
	for i := range cached.Offers {
		o := cached.Offers[i].Clone()
		offers[i] = &o
	}

	snap, _ := newSnapshot(cached.Version, cached.RefreshedAt, offers)
	if !s.current.CompareAndSwap(nil, snap) {
		return false
	}

	s.logger.Info().
		Uint64("version", cached.Version).
		Int("size", len(offers)).
		Time("refreshed_at", cached.RefreshedAt).
		Msg("catalog restored from cached snapshot")

	return true
}

// Snapshot returns the current snapshot in mirrorable form, or nil if the store is empty
func (s *Store) Snapshot() *models.CachedSnapshot {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return &models.CachedSnapshot{
		Version:     snap.version,
		RefreshedAt: snap.refreshedAt,
		Offers:      copyOffers(snap.offers),
	}
}

// All returns every offer in the snapshot in feed order
func (s *Store) All() []models.Offer {
	snap := s.current.Load()
	if snap == nil {
		return []models.Offer{}
	}
	return copyOffers(snap.offers)
}

// VisibleOffers returns, in feed order, the offers that start on the same
// calendar day as ref in ref's location. Other offers stay in the store.
func (s *Store) VisibleOffers(ref time.Time) []models.Offer {
	visible := []models.Offer{}

	snap := s.current.Load()
	if snap == nil {
		return visible
	}

	for _, o := range snap.offers {
		if o.CommenceTime.IsZero() {
			continue
		}
		if sameDay(o.CommenceTime.In(ref.Location()), ref) {
			visible = append(visible, o.Clone())
		}
	}

	return visible
}

// Lookup finds an offer by key in the current snapshot
func (s *Store) Lookup(key models.OfferKey) (models.Offer, bool) {
	snap := s.current.Load()
	if snap == nil {
		return models.Offer{}, false
	}

	o, ok := snap.index[key]
	if !ok {
		return models.Offer{}, false
	}
	return o.Clone(), true
}

// Status reports the snapshot currently held and the last refresh attempt
func (s *Store) Status() Status {
	var st Status
	if snap := s.current.Load(); snap != nil {
		st.Version = snap.version
		st.Size = len(snap.offers)
		st.RefreshedAt = snap.refreshedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.LastAttemptAt = s.lastAttemptAt
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}

	return st
}

func (s *Store) recordAttempt(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttemptAt = s.now()
	s.lastErr = err
}

// newSnapshot builds the key index. Later offers overwrite earlier ones with the same key.
func newSnapshot(version uint64, refreshedAt time.Time, offers []*models.Offer) (*snapshot, int) {
	index := make(map[models.OfferKey]*models.Offer, len(offers))
	duplicates := 0

	for _, o := range offers {
		key := o.Key()
		if _, exists := index[key]; exists {
			duplicates++
		}
		index[key] = o
	}

	return &snapshot{
		version:     version,
		refreshedAt: refreshedAt,
		offers:      offers,
		index:       index,
	}, duplicates
}

func copyOffers(offers []*models.Offer) []models.Offer {
	out := make([]models.Offer, len(offers))
	for i, o := range offers {
		out[i] = o.Clone()
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
