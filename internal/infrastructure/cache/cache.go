package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the key was not found or had expired
var ErrCacheMiss = errors.New("cache miss")

// Store is the result cache the provider adapters consult before calling
// upstream. Values are the adapters' normalized response shapes, stored as
// JSON. Keys are namespaced per data source; a read past expiry is a miss,
// never stale data.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
