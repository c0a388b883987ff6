package source

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum inter-request interval per remote host.
// This is a hard invariant, not a courtesy: violating it risks the whole
// process being blocked by the source, silently invalidating downstream
// data. All mutation happens under a single writer lock.
type Throttle struct {
	limiters map[string]*rate.Limiter
	locks    map[string]*sync.Mutex
	mu       sync.Mutex
	interval time.Duration
}

// NewThrottle creates a throttle with the given default minimum interval
func NewThrottle(minInterval time.Duration) *Throttle {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		locks:    make(map[string]*sync.Mutex),
		interval: minInterval,
	}
}

// Acquire blocks until a request to rawURL's host is permitted, then holds
// that host's slot so only one request is outstanding at a time. The
// returned release function must be called when the request completes.
func (t *Throttle) Acquire(ctx context.Context, rawURL string) (func(), error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}

	limiter, lock := t.forHost(host)

	lock.Lock()
	if err := limiter.Wait(ctx); err != nil {
		lock.Unlock()
		return nil, err
	}
	return lock.Unlock, nil
}

// SetHostInterval overrides the minimum interval for one host (e.g., a
// crawl-delay announced by robots.txt).
func (t *Throttle) SetHostInterval(host string, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limiters[host] = rate.NewLimiter(rate.Every(interval), 1)
	if _, ok := t.locks[host]; !ok {
		t.locks[host] = &sync.Mutex{}
	}
}

func (t *Throttle) forHost(host string) (*rate.Limiter, *sync.Mutex) {
	t.mu.Lock()
	defer t.mu.Unlock()

	limiter, ok := t.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[host] = limiter
	}
	lock, ok := t.locks[host]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[host] = lock
	}
	return limiter, lock
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
