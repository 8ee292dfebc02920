package branch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
)

// CachedDirectory keeps lookup results in Redis. Cache failures are logged
// and fall through to the wrapped directory.
type CachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedDirectory {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, log: log}
}

func cacheKey(postalCode string) string {
	return "branches:postal:" + postalCode
}

func (c *CachedDirectory) Lookup(ctx context.Context, postalCode string) ([]booking.Branch, error) {
	if !booking.ValidPostalCode(postalCode) {
		return nil, ErrInvalidPostalCode
	}
	key := cacheKey(postalCode)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []booking.Branch
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.Warn("discarding corrupt branch cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("branch cache read failed", zap.String("key", key), zap.Error(err))
	}

	branches, err := c.next.Lookup(ctx, postalCode)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(branches)
	if err != nil {
		c.log.Warn("branch cache encode failed", zap.String("key", key), zap.Error(err))
		return branches, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("branch cache write failed", zap.String("key", key), zap.Error(err))
	}

	return branches, nil
}
