package core

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const receiptCacheTTL = 60 * time.Second

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// ReceiptCache holds short-lived per-user receipt listings so repeated reads
// skip Postgres. Cache failures are logged and treated as misses; Postgres
// remains the source of truth.
type ReceiptCache struct {
	client *redis.Client
}

func NewReceiptCache(client *redis.Client) *ReceiptCache {
	return &ReceiptCache{client: client}
}

func receiptCacheKey(userID string) string {
	return "receipts:user:" + userID
}

// Get returns the cached listing for userID, or ok=false on a miss.
func (c *ReceiptCache) Get(ctx context.Context, userID string) ([]Receipt, bool) {
	data, err := c.client.Get(ctx, receiptCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("receipt cache get failed for user %s: %v", userID, err)
		}
		return nil, false
	}
	var items []Receipt
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores the listing for userID with the cache TTL.
func (c *ReceiptCache) Set(ctx context.Context, userID string, items []Receipt) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, receiptCacheKey(userID), data, receiptCacheTTL).Err(); err != nil {
		log.Printf("receipt cache set failed for user %s: %v", userID, err)
	}
}

// Invalidate drops the cached listing for userID.
func (c *ReceiptCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, receiptCacheKey(userID)).Err(); err != nil {
		log.Printf("receipt cache invalidate failed for user %s: %v", userID, err)
	}
}
