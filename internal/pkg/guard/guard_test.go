package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemory_SecondAcquireIsRejected(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "session-1", "a")
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got %v %v", ok, err)
	}
	ok, _ = g.Acquire(ctx, "session-1", "b")
	if ok {
		t.Error("expected second acquire for the same session to fail")
	}
	ok, _ = g.Acquire(ctx, "session-2", "c")
	if !ok {
		t.Error("expected a different session to acquire independently")
	}
}

func TestMemory_ReleaseAllowsReacquire(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	_, _ = g.Acquire(ctx, "s", "a")
	if err := g.Release(ctx, "s", "a"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := g.Acquire(ctx, "s", "b"); !ok {
		t.Error("expected acquire after release to succeed")
	}
}

func TestMemory_ReleaseWithWrongTokenKeepsLease(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	_, _ = g.Acquire(ctx, "s", "a")
	if err := g.Release(ctx, "s", "b"); !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("expected ErrLeaseLost, got %v", err)
	}
	if ok, _ := g.Acquire(ctx, "s", "c"); ok {
		t.Error("expected the lease to survive a release with a foreign token")
	}
}

func TestMemory_ConcurrentAcquireHasOneWinner(t *testing.T) {
	g := NewMemory()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Acquire(context.Background(), "race", "t"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
}

func newRedisGuard(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, ttl), mr
}

func TestRedis_KeyIsNamespaced(t *testing.T) {
	r := NewRedis(nil, time.Minute)
	if got := r.Key("abc"); got != "storefront:poll:abc" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestRedis_AcquireStoresTokenWithTTL(t *testing.T) {
	g, mr := newRedisGuard(t, 5*time.Minute)

	ok, err := g.Acquire(context.Background(), "s", "token-a")
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got %v %v", ok, err)
	}
	if got, _ := mr.Get(g.Key("s")); got != "token-a" {
		t.Errorf("expected token-a stored, got %q", got)
	}
	if ttl := mr.TTL(g.Key("s")); ttl != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %s", ttl)
	}
}

func TestRedis_SecondAcquireIsRejected(t *testing.T) {
	g, _ := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	if ok, _ := g.Acquire(ctx, "s", "a"); !ok {
		t.Fatal("expected first acquire to succeed")
	}
	ok, err := g.Acquire(ctx, "s", "b")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ok {
		t.Error("expected second acquire for the same session to fail")
	}
}

func TestRedis_ReleaseAllowsReacquire(t *testing.T) {
	g, mr := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	_, _ = g.Acquire(ctx, "s", "a")
	if err := g.Release(ctx, "s", "a"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists(g.Key("s")) {
		t.Error("expected the key to be deleted")
	}
	if ok, _ := g.Acquire(ctx, "s", "b"); !ok {
		t.Error("expected acquire after release to succeed")
	}
}

func TestRedis_ExpiredHolderCannotReleaseNewLease(t *testing.T) {
	g, mr := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	_, _ = g.Acquire(ctx, "s", "first")
	mr.FastForward(time.Minute + time.Second)

	if ok, _ := g.Acquire(ctx, "s", "second"); !ok {
		t.Fatal("expected acquire after expiry to succeed")
	}
	if err := g.Release(ctx, "s", "first"); !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("expected ErrLeaseLost, got %v", err)
	}
	if got, _ := mr.Get(g.Key("s")); got != "second" {
		t.Errorf("expected the second holder to keep the key, got %q", got)
	}
}
