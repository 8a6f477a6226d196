package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
)

// SpecialLister fetches the contents of a user's special playlist.
// *QueryService satisfies it.
type SpecialLister interface {
	SpecialPlaylist(ctx context.Context, userID string) ([]models.Track, error)
}

// CacheSet holds one splaylist cache per user.
//
// Warm populates a cache from the query proxy and is sequenced by the
// scheduler before any periodic tick. GetOrCreate hands out an empty cache
// when none exists yet so callers always get an answer; that condition is
// reported to telemetry as cache-not-ready.
type CacheSet struct {
	mu        sync.Mutex
	caches    map[string]*models.SplaylistCache
	source    SpecialLister
	telemetry Telemetry
	logger    *log.Logger
}

// NewCacheSet creates an empty CacheSet backed by the given playlist source.
func NewCacheSet(source SpecialLister, telemetry Telemetry, logger *log.Logger) *CacheSet {
	return &CacheSet{
		caches:    make(map[string]*models.SplaylistCache),
		source:    source,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Warm fetches the special playlist for userID and installs the populated
// cache, replacing any lazily constructed placeholder.
func (c *CacheSet) Warm(ctx context.Context, userID string) error {
	tracks, err := c.source.SpecialPlaylist(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch special playlist: %w", err)
	}

	c.mu.Lock()
	c.caches[userID] = &models.SplaylistCache{
		UserID:   userID,
		Tracks:   tracks,
		WarmedAt: time.Now(),
	}
	c.mu.Unlock()

	c.logger.Info("splaylist cache warmed", "user", userID, "tracks", len(tracks))
	return nil
}

// Get returns the cache for userID if one exists.
func (c *CacheSet) Get(userID string) (*models.SplaylistCache, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cache, ok := c.caches[userID]
	return cache, ok
}

// GetOrCreate returns the cache for userID, lazily constructing an empty one
// when absent. The lazy construction is a cache-not-ready condition: it is
// logged and reported to telemetry, but the caller still gets a usable value.
func (c *CacheSet) GetOrCreate(userID string) *models.SplaylistCache {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cache, ok := c.caches[userID]; ok {
		return cache
	}

	c.logger.Warn("splaylist cache not ready, constructing empty", "user", userID)
	c.telemetry.Warn("splaylistcache_missing", "user", userID)

	cache := &models.SplaylistCache{UserID: userID, Tracks: []models.Track{}}
	c.caches[userID] = cache
	return cache
}

// Drop discards the cache for userID.
func (c *CacheSet) Drop(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.caches, userID)
}
