// Package cache selects the session store and notification bus for the
// process: Redis when an address is configured, in-process otherwise.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/cache/local"
	cacheredis "github.com/rckrdmrd/glit-backend-sub002/cache/redis"
	"github.com/rckrdmrd/glit-backend-sub002/config"
)

// Cache is the key/value store holding login sessions.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Message is a received pub/sub message. Both backends declare the same
// alias so their channels satisfy PubSub without conversion.
type Message = struct {
	Channel string
	Payload string
}

// PubSub fans notifications out to live subscribers.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// IsNotFound reports whether err is a missing-key error from either backend.
func IsNotFound(err error) bool {
	return errors.Is(err, local.ErrNotFound) || errors.Is(err, cacheredis.ErrNotFound)
}

// Backend bundles the store and bus of one backend.
type Backend struct {
	Cache
	PubSub
	Redis bool

	close func() error
}

// Close releases the backend's connection or GC goroutine.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to Redis if RedisAddr is set and falls back to an
// in-process store otherwise.
func Open(cfg config.CacheConfig) (*Backend, error) {
	if cfg.RedisAddr != "" {
		client, err := cacheredis.Open(cacheredis.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{Cache: client, PubSub: client, Redis: true, close: client.Close}, nil
	}
	store := local.New(local.Config{
		GCInterval:       cfg.LocalGCInterval,
		SubscriberBuffer: cfg.LocalPubSubBuf,
	})
	return &Backend{Cache: store, PubSub: store, close: store.Close}, nil
}
