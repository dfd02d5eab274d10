package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

const testKey = "offer_catalog:snapshot"

// testRedisCacheSetup is a helper struct to hold test dependencies
type testRedisCacheSetup struct {
	cache     *RedisCache
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisCache creates a test cache with miniredis
func setupTestRedisCache(t *testing.T) *testRedisCacheSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := RedisCacheConfig{
		Addr:     mr.Addr(),
		Password: "",
		DB:       0,
		TTL:      15 * time.Minute,
		Key:      testKey,
	}

	return &testRedisCacheSetup{
		cache:     NewRedisCache(config, zerolog.Nop()),
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testRedisCacheSetup) cleanup() {
	s.cache.Close()
	s.miniRedis.Close()
}

func testSnapshot(version uint64) *models.CachedSnapshot {
	return &models.CachedSnapshot{
		Version:     version,
		RefreshedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Offers: []models.Offer{
			{
				EventID:       "evt-1",
				SportKey:      "basketball_nba",
				EventHomeTeam: "Boston Celtics",
				EventAwayTeam: "Miami Heat",
				CommenceTime:  models.NewCommenceTime(time.Date(2024, 3, 1, 0, 10, 0, 0, time.UTC)),
				MarketKey:     "player_points",
				OutcomeName:   "Over",
				OutcomeDesc:   "Jayson Tatum",
				OutcomePoint:  27.5,
				Price:         -110,
				OutlierScore:  1.07,
				Extra:         map[string]json.RawMessage{"DecimalPrice": json.RawMessage(`1.91`)},
			},
			{
				EventID:     "evt-2",
				MarketKey:   "h2h",
				OutcomeName: "Denver Nuggets",
				OutcomeDesc: "Moneyline",
				Price:       135,
			},
		},
	}
}

// TestNewRedisCache tests cache creation
func TestNewRedisCache(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.cache)
	assert.NotNil(t, setup.cache.client)
	assert.Equal(t, 15*time.Minute, setup.cache.ttl)
	assert.Equal(t, testKey, setup.cache.key)
}

// TestSave_Success tests that the snapshot is written with its TTL
func TestSave_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.Save(setup.ctx, testSnapshot(3))

	require.NoError(t, err)
	assert.True(t, setup.miniRedis.Exists(testKey))
	assert.Equal(t, 15*time.Minute, setup.miniRedis.TTL(testKey))

	version, err := setup.miniRedis.Get(testKey + ":version")
	require.NoError(t, err)
	assert.Equal(t, "3", version)
}

// TestSave_ContextCanceled tests saving with a canceled context
func TestSave_ContextCanceled(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(setup.ctx)
	cancel()

	err := setup.cache.Save(ctx, testSnapshot(1))

	assert.Error(t, err)
	assert.False(t, setup.miniRedis.Exists(testKey))
}

// TestSave_OlderVersionIgnored tests that a stale snapshot does not replace a newer one
func TestSave_OlderVersionIgnored(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.Save(setup.ctx, testSnapshot(5)))

	older := testSnapshot(4)
	older.Offers = older.Offers[:1]
	require.NoError(t, setup.cache.Save(setup.ctx, older))

	loaded, err := setup.cache.Load(setup.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), loaded.Version)
	assert.Len(t, loaded.Offers, 2)
}

// TestLoad_Success tests that a mirrored snapshot reads back intact
func TestLoad_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	original := testSnapshot(2)
	require.NoError(t, setup.cache.Save(setup.ctx, original))

	loaded, err := setup.cache.Load(setup.ctx)

	require.NoError(t, err)
	assert.Equal(t, original.Version, loaded.Version)
	assert.True(t, original.RefreshedAt.Equal(loaded.RefreshedAt))
	require.Len(t, loaded.Offers, 2)

	first := loaded.Offers[0]
	assert.Equal(t, original.Offers[0].Key(), first.Key())
	assert.Equal(t, -110.0, first.Price)
	assert.Equal(t, 27.5, first.OutcomePoint)
	assert.True(t, original.Offers[0].CommenceTime.Equal(first.CommenceTime.Time))
	assert.JSONEq(t, `1.91`, string(first.Extra["DecimalPrice"]))

	assert.True(t, loaded.Offers[1].CommenceTime.IsZero())
}

// TestLoad_NotFound tests loading before anything was mirrored
func TestLoad_NotFound(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	snapshot, err := setup.cache.Load(setup.ctx)

	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

// TestLoad_Expired tests that an expired snapshot is gone
func TestLoad_Expired(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.Save(setup.ctx, testSnapshot(1)))

	setup.miniRedis.FastForward(20 * time.Minute)

	_, err := setup.cache.Load(setup.ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

// TestLoad_InvalidData tests a corrupted mirror entry
func TestLoad_InvalidData(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.miniRedis.Set(testKey, "invalid json data"))

	_, err := setup.cache.Load(setup.ctx)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)
}

// TestPing_Success tests successful ping
func TestPing_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.Ping(setup.ctx)

	assert.NoError(t, err)
}

// TestPing_RedisDown tests ping when Redis is down
func TestPing_RedisDown(t *testing.T) {
	setup := setupTestRedisCache(t)

	// Close Redis before ping
	setup.miniRedis.Close()

	err := setup.cache.Ping(setup.ctx)

	assert.Error(t, err)

	// Don't call cleanup() since we already closed Redis
	setup.cache.Close()
}
