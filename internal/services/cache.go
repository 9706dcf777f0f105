package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"share-counts/internal/models"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache caches per-URL snapshots in Redis so the periodic refresh
// worker does not hammer the counts provider. A nil cache is valid and
// disables caching entirely.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a snapshot cache backed by the given Redis
// address. Returns nil (caching disabled) when the address is empty.
func NewSnapshotCache(addr string, ttl time.Duration) *SnapshotCache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SnapshotCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func cacheKey(pageURL string) string {
	return "share-counts:snapshot:" + pageURL
}

// Get returns the cached snapshot for a URL, or nil on miss.
func (c *SnapshotCache) Get(ctx context.Context, pageURL string) *models.CountSnapshot {
	if c == nil {
		return nil
	}

	data, err := c.client.Get(ctx, cacheKey(pageURL)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Snapshot cache read failed for %s: %v", pageURL, err)
		}
		return nil
	}

	var snapshot models.CountSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

// Set stores a snapshot for a URL.
func (c *SnapshotCache) Set(ctx context.Context, pageURL string, snapshot *models.CountSnapshot) {
	if c == nil || snapshot == nil {
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(pageURL), data, c.ttl).Err(); err != nil {
		log.Printf("Snapshot cache write failed for %s: %v", pageURL, err)
	}
}

// Close releases the Redis connection.
func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot cache: %w", err)
	}
	return nil
}
