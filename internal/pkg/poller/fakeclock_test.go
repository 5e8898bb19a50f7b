package poller

import (
	"sync"
	"time"
)

// fakeClock only moves when the test says so. Advance delivers every tick
// that falls due, blocking until the poll loop receives it.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{
		c:       make(chan time.Time),
		period:  d,
		next:    c.now.Add(d),
		stopped: make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Sleep moves time without firing tickers, like a slow request would.
func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		t.fireUntil(now)
	}
}

type fakeTicker struct {
	c       chan time.Time
	period  time.Duration
	next    time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.c
}

func (t *fakeTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *fakeTicker) fireUntil(now time.Time) {
	for !t.next.After(now) {
		select {
		case t.c <- t.next:
		case <-t.stopped:
			return
		}
		t.next = t.next.Add(t.period)
	}
}
