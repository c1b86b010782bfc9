package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/model"
	"github.com/landtube/landtube-go/pkg/hash"
)

// Video metadata does not change once published; profiles change whenever a
// list advance credits the balance.
const (
	VideoCacheTTL   = 24 * time.Hour
	ProfileCacheTTL = 30 * time.Second
)

// Cache kinds reported to the observer.
const (
	CacheKindVideo   = "video"
	CacheKindProfile = "profile"
)

// CacheService provides a Redis cache-aside layer for video metadata and
// dashboard profiles.
type CacheService struct {
	rdb     *redis.Client
	log     zerolog.Logger
	observe func(kind string, hit bool)
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, log zerolog.Logger) *CacheService {
	log = log.With().Str("component", "cache").Logger()
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{log: log}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{log: log}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{log: log}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, log: log}
}

// NewCacheServiceWithClient wraps an existing client without pinging it.
func NewCacheServiceWithClient(rdb *redis.Client, log zerolog.Logger) *CacheService {
	return &CacheService{rdb: rdb, log: log.With().Str("component", "cache").Logger()}
}

// SetObserver registers fn to be called on every lookup with the cache kind
// and whether it was a hit.
func (c *CacheService) SetObserver(fn func(kind string, hit bool)) {
	c.observe = fn
}

// Enabled reports whether a Redis client is configured.
func (c *CacheService) Enabled() bool {
	return c.rdb != nil
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetVideos returns the cached videos among ids and the IDs that must be
// loaded from the database. Cache errors are treated as misses.
func (c *CacheService) GetVideos(ctx context.Context, ids []string) (map[string]model.Video, []string) {
	found := make(map[string]model.Video, len(ids))
	if c.rdb == nil || len(ids) == 0 {
		return found, ids
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = videoKey(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Debug().Err(err).Msg("redis: video lookup failed")
		c.record(CacheKindVideo, false)
		return found, ids
	}

	var missing []string
	for i, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			missing = append(missing, ids[i])
			c.record(CacheKindVideo, false)
			continue
		}
		var v model.Video
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			missing = append(missing, ids[i])
			c.record(CacheKindVideo, false)
			continue
		}
		found[ids[i]] = v
		c.record(CacheKindVideo, true)
	}
	return found, missing
}

// SetVideos stores video metadata in cache.
func (c *CacheService) SetVideos(ctx context.Context, videos []model.Video) error {
	if c.rdb == nil || len(videos) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, v := range videos {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		pipe.Set(ctx, videoKey(v.ID), b, VideoCacheTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetProfile retrieves a cached profile. Returns nil if not cached or cache is disabled.
func (c *CacheService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(CacheKindProfile, false)
		return nil, nil
	}
	if err != nil {
		c.record(CacheKindProfile, false)
		return nil, err
	}
	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		c.record(CacheKindProfile, false)
		return nil, err
	}
	c.record(CacheKindProfile, true)
	return &p, nil
}

// SetProfile stores a profile in cache.
func (c *CacheService) SetProfile(ctx context.Context, p *model.Profile) error {
	if c.rdb == nil || p == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, profileKey(p.UserID), b, ProfileCacheTTL).Err()
}

// InvalidateProfile removes a profile from cache (called after list progress changes).
func (c *CacheService) InvalidateProfile(ctx context.Context, userID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, profileKey(userID)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) record(kind string, hit bool) {
	if c.observe != nil {
		c.observe(kind, hit)
	}
}

func videoKey(videoID string) string {
	return "video:" + videoID
}

func profileKey(userID string) string {
	return hash.CacheKey("profile", userID)
}
