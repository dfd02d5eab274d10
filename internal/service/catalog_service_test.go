package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/offer-catalog-service/internal/cache"
	"github.com/cypherlabdev/offer-catalog-service/internal/metrics"
	"github.com/cypherlabdev/offer-catalog-service/internal/mocks"
	"github.com/cypherlabdev/offer-catalog-service/internal/models"
	"github.com/cypherlabdev/offer-catalog-service/pkg/catalog"
)

// testCatalogSetup is a helper struct to hold test dependencies
type testCatalogSetup struct {
	service   *CatalogService
	store     *catalog.Store
	mockCache *mocks.MockSnapshotCache
	feed      *scriptedFeed
	ctrl      *gomock.Controller
	ctx       context.Context
}

// scriptedFeed answers fetches in order; the last answer repeats
type scriptedFeed struct {
	records [][]json.RawMessage
	errs    []error
	calls   int
}

func (f *scriptedFeed) fetch(ctx context.Context) ([]json.RawMessage, error) {
	i := f.calls
	if i >= len(f.errs) {
		i = len(f.errs) - 1
	}
	f.calls++
	return f.records[i], f.errs[i]
}

func (f *scriptedFeed) push(records []json.RawMessage, err error) {
	f.records = append(f.records, records)
	f.errs = append(f.errs, err)
}

// setupTestCatalogService creates a test service with a mocked mirror
func setupTestCatalogService(t *testing.T, withCache bool) *testCatalogSetup {
	ctrl := gomock.NewController(t)
	feed := &scriptedFeed{}
	logger := zerolog.Nop()

	store := catalog.NewStore(catalog.SourceFunc(feed.fetch), catalog.StoreOptions{MaxMalformedRatio: 0.5}, logger)
	m := metrics.NewMetrics(prometheus.NewRegistry())

	setup := &testCatalogSetup{
		store: store,
		feed:  feed,
		ctrl:  ctrl,
		ctx:   context.Background(),
	}

	if withCache {
		setup.mockCache = mocks.NewMockSnapshotCache(ctrl)
		setup.service = NewCatalogService(store, setup.mockCache, m, logger)
	} else {
		setup.service = NewCatalogService(store, nil, m, logger)
	}

	return setup
}

// cleanup cleans up test resources
func (s *testCatalogSetup) cleanup() {
	s.ctrl.Finish()
}

func feedRecords(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(
			`{"EventId":"evt-%d","EventHomeTeam":"Boston Celtics","EventAwayTeam":"Miami Heat",`+
				`"CommenceTime":"2024-03-01T19:00:00Z","MarketKey":"player_points","OutcomeName":"Over",`+
				`"OutcomeDesc":"Jayson Tatum","OutcomePoint":27.5,"Price":-110,"OutlierScore":1.07}`, i))
	}
	return out
}

func cachedSnapshot(n int) *models.CachedSnapshot {
	offers := make([]models.Offer, n)
	for i := range offers {
		offers[i] = models.Offer{
			EventID:      fmt.Sprintf("cached-%d", i),
			CommenceTime: models.NewCommenceTime(time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)),
			MarketKey:    "h2h",
			OutcomeName:  "Boston Celtics",
			OutcomeDesc:  "Moneyline",
			Price:        -150,
		}
	}
	return &models.CachedSnapshot{
		Version:     4,
		RefreshedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Offers:      offers,
	}
}

// TestInitialize_Success tests that the first refresh is mirrored
func TestInitialize_Success(t *testing.T) {
	setup := setupTestCatalogService(t, true)
	defer setup.cleanup()

	setup.feed.push(feedRecords(3), nil)

	setup.mockCache.EXPECT().
		Load(gomock.Any()).
		Return(nil, errors.New("cached snapshot not found")).
		Times(1)
	setup.mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, snap *models.CachedSnapshot) error {
			assert.Equal(t, uint64(1), snap.Version)
			assert.Len(t, snap.Offers, 3)
			return nil
		}).
		Times(1)

	err := setup.service.Initialize(setup.ctx)

	require.NoError(t, err)
	assert.True(t, setup.service.Ready())
	assert.Equal(t, 3, setup.service.Status().Size)
}

// TestInitialize_Twice tests that initialization happens only once
func TestInitialize_Twice(t *testing.T) {
	setup := setupTestCatalogService(t, false)
	defer setup.cleanup()

	setup.feed.push(feedRecords(1), nil)

	require.NoError(t, setup.service.Initialize(setup.ctx))
	err := setup.service.Initialize(setup.ctx)

	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, 1, setup.feed.calls)
}

// TestInitialize_FallsBackToCache tests seeding from the mirror when the feed is down
func TestInitialize_FallsBackToCache(t *testing.T) {
	setup := setupTestCatalogService(t, true)
	defer setup.cleanup()

	feedErr := &catalog.FetchError{Kind: catalog.KindStatus, StatusCode: 503}
	setup.feed.push(nil, feedErr)

	setup.mockCache.EXPECT().
		Load(gomock.Any()).
		Return(cachedSnapshot(2), nil).
		Times(1)

	err := setup.service.Initialize(setup.ctx)

	var ferr *catalog.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, catalog.KindStatus, ferr.Kind)

	assert.True(t, setup.service.Ready())
	status := setup.service.Status()
	assert.Equal(t, uint64(4), status.Version)
	assert.Equal(t, 2, status.Size)

	offer, found := setup.service.Lookup(models.ComputeKey("cached-1", "h2h", "Moneyline", "Boston Celtics"))
	require.True(t, found)
	assert.Equal(t, -150.0, offer.Price)
}

// TestInitialize_NoCachedSnapshot tests a failed start with an empty mirror
func TestInitialize_NoCachedSnapshot(t *testing.T) {
	setup := setupTestCatalogService(t, true)
	defer setup.cleanup()

	setup.feed.push(nil, errors.New("connection refused"))

	setup.mockCache.EXPECT().
		Load(gomock.Any()).
		Return(nil, errors.New("cached snapshot not found")).
		Times(1)

	err := setup.service.Initialize(setup.ctx)

	require.Error(t, err)
	assert.False(t, setup.service.Ready())
	assert.Empty(t, setup.service.VisibleOffers(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
}

// TestInitialize_FailureWithoutCache tests a failed start with mirroring disabled
func TestInitialize_FailureWithoutCache(t *testing.T) {
	setup := setupTestCatalogService(t, false)
	defer setup.cleanup()

	setup.feed.push(nil, errors.New("connection refused"))

	err := setup.service.Initialize(setup.ctx)

	var ferr *catalog.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, catalog.KindNetwork, ferr.Kind)
	assert.False(t, setup.service.Ready())
}

// TestRefresh_CacheErrorIgnored tests that a mirror failure does not fail the refresh
func TestRefresh_CacheErrorIgnored(t *testing.T) {
	setup := setupTestCatalogService(t, true)
	defer setup.cleanup()

	setup.feed.push(feedRecords(2), nil)

	setup.mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		Return(errors.New("redis: connection refused")).
		Times(1)

	err := setup.service.Refresh(setup.ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, setup.service.Status().Size)
}

// TestRefresh_FailureNotMirrored tests that a failed refresh keeps the snapshot and skips the mirror
func TestRefresh_FailureNotMirrored(t *testing.T) {
	setup := setupTestCatalogService(t, true)
	defer setup.cleanup()

	setup.feed.push(feedRecords(2), nil)
	setup.feed.push(nil, &catalog.FetchError{Kind: catalog.KindMalformedBody})

	setup.mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		Return(nil).
		Times(1)

	require.NoError(t, setup.service.Refresh(setup.ctx))
	err := setup.service.Refresh(setup.ctx)

	require.Error(t, err)
	status := setup.service.Status()
	assert.Equal(t, uint64(1), status.Version)
	assert.Equal(t, 2, status.Size)
	assert.NotEmpty(t, status.LastError)
}

// TestVisibleOffers tests the day filter through the service
func TestVisibleOffers(t *testing.T) {
	setup := setupTestCatalogService(t, false)
	defer setup.cleanup()

	setup.feed.push(feedRecords(2), nil)
	require.NoError(t, setup.service.Refresh(setup.ctx))

	assert.Len(t, setup.service.VisibleOffers(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)), 2)
	assert.Empty(t, setup.service.VisibleOffers(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)))
}

// TestInitialize_ContinuesMirroredVersion tests that a restarted service numbers after the mirrored snapshot
func TestInitialize_ContinuesMirroredVersion(t *testing.T) {
	setup := setupTestCatalogService(t, true)
	defer setup.cleanup()

	setup.feed.push(feedRecords(1), nil)

	gomock.InOrder(
		setup.mockCache.EXPECT().
			Load(gomock.Any()).
			Return(cachedSnapshot(2), nil),
		setup.mockCache.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, snap *models.CachedSnapshot) error {
				assert.Equal(t, uint64(5), snap.Version)
				assert.Equal(t, "evt-0", snap.Offers[0].EventID)
				return nil
			}),
	)

	require.NoError(t, setup.service.Initialize(setup.ctx))
	assert.Equal(t, uint64(5), setup.service.Status().Version)
}

// newMirroredService builds a catalog service over feed that mirrors to the Redis at addr
func newMirroredService(t *testing.T, addr string, feed *scriptedFeed) *CatalogService {
	t.Helper()
	logger := zerolog.Nop()

	redisCache := cache.NewRedisCache(cache.RedisCacheConfig{
		Addr: addr,
		TTL:  24 * time.Hour,
		Key:  "offer_catalog:snapshot",
	}, logger)
	t.Cleanup(func() { redisCache.Close() })

	store := catalog.NewStore(catalog.SourceFunc(feed.fetch), catalog.StoreOptions{MaxMalformedRatio: 0.5}, logger)
	return NewCatalogService(store, redisCache, metrics.NewMetrics(prometheus.NewRegistry()), logger)
}

func eventRecord(eventID string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"EventId":%q,"CommenceTime":"2024-03-01T19:00:00Z","MarketKey":"h2h",`+
			`"OutcomeName":"Boston Celtics","OutcomeDesc":"Moneyline","Price":-150}`, eventID))
}

// TestMirror_SurvivesRestart tests that snapshots accepted after a restart replace the mirror
func TestMirror_SurvivesRestart(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	ctx := context.Background()

	// First process accepts several snapshots
	firstFeed := &scriptedFeed{}
	firstFeed.push([]json.RawMessage{eventRecord("old")}, nil)
	first := newMirroredService(t, mr.Addr(), firstFeed)
	require.NoError(t, first.Initialize(ctx))
	for i := 0; i < 4; i++ {
		require.NoError(t, first.Refresh(ctx))
	}
	require.Equal(t, uint64(5), first.Status().Version)

	// Second process starts on the same Redis with a newer feed
	secondFeed := &scriptedFeed{}
	secondFeed.push([]json.RawMessage{eventRecord("new")}, nil)
	second := newMirroredService(t, mr.Addr(), secondFeed)
	require.NoError(t, second.Initialize(ctx))
	require.NoError(t, second.Refresh(ctx))
	assert.Equal(t, uint64(7), second.Status().Version)

	// Third process finds the feed down and falls back to what the second accepted
	thirdFeed := &scriptedFeed{}
	thirdFeed.push(nil, errors.New("connection refused"))
	third := newMirroredService(t, mr.Addr(), thirdFeed)
	require.Error(t, third.Initialize(ctx))

	assert.Equal(t, uint64(7), third.Status().Version)
	_, found := third.Lookup(models.ComputeKey("new", "h2h", "Moneyline", "Boston Celtics"))
	assert.True(t, found)
	_, found = third.Lookup(models.ComputeKey("old", "h2h", "Moneyline", "Boston Celtics"))
	assert.False(t, found)
}
