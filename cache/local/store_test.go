package local

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	s := New(Config{GCInterval: time.Hour, SubscriberBuffer: 2})
	s.now = clock.now
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func TestStore_SessionKeys(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "session:abc", "u-1", time.Minute))
	v, err := s.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, "u-1", v)

	clock.advance(2 * time.Minute)
	_, err = s.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := s.Exists(ctx, "session:abc")
	assert.False(t, ok)
}

func TestStore_NoTTLNeverExpires(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	clock.advance(24 * 365 * time.Hour)
	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_ExpireAndDel(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "a", "1", 0)
	_ = s.Set(ctx, "b", "2", 0)
	require.NoError(t, s.Expire(ctx, "a", time.Second))
	assert.NoError(t, s.Expire(ctx, "missing", time.Second))

	clock.advance(2 * time.Second)
	ok, _ := s.Exists(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, s.Del(ctx, "b", "never-set"))
	ok, _ = s.Exists(ctx, "b")
	assert.False(t, ok)
}

func TestStore_Sweep(t *testing.T) {
	s, clock := newStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "short", "x", time.Second)
	_ = s.Set(ctx, "long", "y", time.Hour)
	_ = s.Set(ctx, "forever", "z", 0)

	assert.Equal(t, 0, s.Sweep())
	clock.advance(time.Minute)
	assert.Equal(t, 1, s.Sweep())

	_, err := s.Get(ctx, "long")
	assert.NoError(t, err)
}

func recv(t *testing.T, ch <-chan *Message) *Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return m
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestStore_PublishReachesOnlyItsChannel(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	alice, cancelA, err := s.Subscribe(ctx, "notify:alice")
	require.NoError(t, err)
	defer cancelA()
	bob, cancelB, err := s.Subscribe(ctx, "notify:bob")
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, s.Publish(ctx, "notify:alice", `{"type":"friend_request"}`))

	m := recv(t, alice)
	assert.Equal(t, "notify:alice", m.Channel)
	assert.Equal(t, `{"type":"friend_request"}`, m.Payload)
	select {
	case m := <-bob:
		t.Fatalf("bob received %q", m.Payload)
	default:
	}
}

func TestStore_FanOutToEverySubscriber(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	tab1, c1, _ := s.Subscribe(ctx, "notify:u")
	tab2, c2, _ := s.Subscribe(ctx, "notify:u")
	defer c1()
	defer c2()
	assert.Equal(t, 2, s.Subscribers("notify:u"))

	_ = s.Publish(ctx, "notify:u", "hi")
	assert.Equal(t, "hi", recv(t, tab1).Payload)
	assert.Equal(t, "hi", recv(t, tab2).Payload)
}

func TestStore_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	ch, cancel, _ := s.Subscribe(ctx, "notify:slow")
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Publish(ctx, "notify:slow", "m"))
	}
	assert.Len(t, ch, 2)
	assert.Equal(t, int64(3), s.Dropped())
}

func TestStore_CancelClosesAndUnregisters(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	ch, cancel, _ := s.Subscribe(ctx, "a", "b")
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, s.Subscribers("a"))
	assert.Zero(t, s.Subscribers("b"))
	assert.NoError(t, s.Publish(ctx, "a", "after"))
}

func TestStore_ContextEndUnsubscribes(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancelCtx := context.WithCancel(context.Background())

	ch, cancel, _ := s.Subscribe(ctx, "notify:gone")
	defer cancel()
	cancelCtx()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
	assert.Zero(t, s.Subscribers("notify:gone"))
}
