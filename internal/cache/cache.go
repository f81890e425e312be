package cache

import (
	"context"
	"time"
)

// BytesCache is a best-effort byte cache. Misses and backend errors are
// both survivable; callers always have the database to fall back to.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
