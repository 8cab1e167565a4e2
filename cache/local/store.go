// Package local is the in-process session store and notification bus used
// when no Redis address is configured.
package local

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("cache: key not found")

// Message is a pub/sub delivery.
type Message = struct {
	Channel string
	Payload string
}

// Config holds Store settings. Zero values pick the defaults.
type Config struct {
	GCInterval       time.Duration
	SubscriberBuffer int
}

type item struct {
	value    string
	deadline time.Time // zero: never expires
}

func (it item) live(now time.Time) bool {
	return it.deadline.IsZero() || now.Before(it.deadline)
}

type subscriber struct {
	ch       chan *Message
	channels []string
}

// Store keeps TTL'd keys in a map and fans published messages out to
// buffered subscriber channels. A full subscriber drops the message rather
// than stalling the publisher.
type Store struct {
	mu    sync.RWMutex
	items map[string]item

	subMu  sync.RWMutex
	topics map[string]map[*subscriber]struct{}
	buf    int

	dropped atomic.Int64
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// New creates a Store and starts its expiry sweeper.
func New(cfg Config) *Store {
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 30 * time.Second
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 256
	}
	s := &Store{
		items:  make(map[string]item),
		topics: make(map[string]map[*subscriber]struct{}),
		buf:    cfg.SubscriberBuffer,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go s.sweepLoop(cfg.GCInterval)
	return s
}

func (s *Store) sweepLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

// Sweep removes expired keys and returns how many were dropped.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, it := range s.items {
		if !it.live(now) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// Close stops the sweeper. It is safe to call more than once.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || !it.live(s.now()) {
		return "", ErrNotFound
	}
	return it.value, nil
}

// Set stores value under key. A non-positive ttl keeps it until deleted.
func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	it := item{value: value}
	if ttl > 0 {
		it.deadline = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.items, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	return ok && it.live(s.now()), nil
}

// Expire resets the TTL of an existing key. Missing keys are ignored.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[key]
	if !ok {
		return nil
	}
	it.deadline = s.now().Add(ttl)
	s.items[key] = it
	return nil
}

// Publish delivers message to every current subscriber of channel.
func (s *Store) Publish(_ context.Context, channel, message string) error {
	msg := &Message{Channel: channel, Payload: message}
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for sub := range s.topics[channel] {
		select {
		case sub.ch <- msg:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe registers for the given channels. The returned channel is
// closed by the cancel func or when ctx ends, whichever comes first.
func (s *Store) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	sub := &subscriber{ch: make(chan *Message, s.buf), channels: channels}

	s.subMu.Lock()
	for _, name := range channels {
		set, ok := s.topics[name]
		if !ok {
			set = make(map[*subscriber]struct{})
			s.topics[name] = set
		}
		set[sub] = struct{}{}
	}
	s.subMu.Unlock()

	var once sync.Once
	stop := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stop)
			s.unsubscribe(sub)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return sub.ch, cancel, nil
}

func (s *Store) unsubscribe(sub *subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, name := range sub.channels {
		delete(s.topics[name], sub)
		if len(s.topics[name]) == 0 {
			delete(s.topics, name)
		}
	}
	close(sub.ch)
}

// Subscribers returns the number of live subscriptions on channel.
func (s *Store) Subscribers(channel string) int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.topics[channel])
}

// Dropped counts messages discarded because a subscriber's buffer was full.
func (s *Store) Dropped() int64 {
	return s.dropped.Load()
}
