// ABOUTME: Redis read-through cache in front of another lyrics store
// ABOUTME: Documents are cached as JSON under lyrics:<id> and dropped on save
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "lyrics:"

// OpenRedis connects to redis from a redis:// or rediss:// URL
func OpenRedis(ctx context.Context, redisURL, password string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opt.Password = password
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Cached serves fetches from redis when possible. Redis failures are logged
// and fall through to the wrapped store.
type Cached struct {
	next   lyrics.Store
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewCached wraps next with a redis cache. ttl of 0 means no expiry.
func NewCached(next lyrics.Store, client *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *Cached {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cached{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    logger.WithField("store", "cache"),
	}
}

// Fetch returns the cached document or loads and caches it
func (c *Cached) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	logger := c.log.WithField("song_id", songID)

	data, err := c.client.Get(ctx, cacheKey(songID)).Bytes()
	switch {
	case err == nil:
		var doc lyrics.Document
		if err := json.Unmarshal(data, &doc); err == nil {
			logger.Debug("Lyrics cache hit")
			doc.SongID = songID
			return doc, nil
		}
		logger.Warn("Discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		logger.WithError(err).Warn("Lyrics cache read failed")
	}

	doc, err := c.next.Fetch(ctx, songID)
	if err != nil {
		return doc, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if err := c.client.Set(ctx, cacheKey(songID), data, c.ttl).Err(); err != nil {
			logger.WithError(err).Warn("Lyrics cache write failed")
		}
	}

	return doc, nil
}

// Save writes through to the wrapped store and drops the cache entry
func (c *Cached) Save(ctx context.Context, songID, text string, synced bool) error {
	if err := c.next.Save(ctx, songID, text, synced); err != nil {
		return err
	}

	if err := c.Invalidate(ctx, songID); err != nil {
		c.log.WithError(err).WithField("song_id", songID).Warn("Lyrics cache invalidation failed")
	}
	return nil
}

// Invalidate drops the cached entry for songID, e.g. after the wrapped
// store was changed behind the cache's back
func (c *Cached) Invalidate(ctx context.Context, songID string) error {
	if err := c.client.Del(ctx, cacheKey(songID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached lyrics: %w", err)
	}
	return nil
}

func cacheKey(songID string) string {
	return cacheKeyPrefix + songID
}
