package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cmapi/internal/model"
)

// APIKeyLookup resolves an API key to its user.
type APIKeyLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (model.User, error)
}

// APIKeyCache memoizes API key lookups in Redis.  Users are never updated
// or deleted, so entries only expire.  Misses are not cached, and any Redis
// failure falls through to the underlying lookup.  The raw key is hashed
// before it is used as a Redis key.
type APIKeyCache struct {
	Next   APIKeyLookup
	RDB    *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewAPIKeyCache(next APIKeyLookup, rdb *redis.Client, ttl time.Duration) *APIKeyCache {
	return &APIKeyCache{Next: next, RDB: rdb, TTL: ttl, Prefix: "apikey"}
}

func (c *APIKeyCache) key(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return c.Prefix + ":" + hex.EncodeToString(sum[:])
}

// GetByAPIKey serves from Redis when possible.  A nil client disables
// caching.
func (c *APIKeyCache) GetByAPIKey(ctx context.Context, apiKey string) (model.User, error) {
	if c.RDB == nil {
		return c.Next.GetByAPIKey(ctx, apiKey)
	}
	k := c.key(apiKey)
	if bs, err := c.RDB.Get(ctx, k).Bytes(); err == nil {
		var u model.User
		if json.Unmarshal(bs, &u) == nil && u.ID != 0 {
			return u, nil
		}
	}
	u, err := c.Next.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return u, err
	}
	if bs, err := json.Marshal(u); err == nil {
		_ = c.RDB.Set(ctx, k, bs, c.TTL).Err()
	}
	return u, nil
}
