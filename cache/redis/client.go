// Package redis backs sessions and notification fan-out with a shared Redis
// so several API replicas see the same logins and deliver to the same
// SSE subscribers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Message is a pub/sub delivery with the key prefix already stripped.
type Message = struct {
	Channel string
	Payload string
}

// Config holds Redis connection settings. KeyPrefix namespaces both keys
// and channels, e.g. "glit:".
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Client is one go-redis connection pool serving both the session store
// and the notification bus.
type Client struct {
	rdb    *goredis.Client
	prefix string
}

// Open dials Redis and verifies it with a PING.
func Open(cfg Config) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) key(k string) string { return c.prefix + k }

func (c *Client) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = c.key(k)
	}
	return out
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, c.keys(keys)...).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, c.key(key), ttl).Err()
}

func (c *Client) Publish(ctx context.Context, channel, message string) error {
	return c.rdb.Publish(ctx, c.key(channel), message).Err()
}

// Subscribe waits for the SUBSCRIBE confirmation before returning so no
// message published afterwards is missed.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	ps := c.rdb.Subscribe(ctx, c.keys(channels)...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan *Message, 256)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			m := &Message{Channel: strings.TrimPrefix(msg.Channel, c.prefix), Payload: msg.Payload}
			select {
			case out <- m:
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}
