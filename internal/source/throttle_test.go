package source

import (
	"context"
	"testing"
	"time"
)

func TestThrottle_SpacesRequestsToSameHost(t *testing.T) {
	throttle := NewThrottle(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		release, err := throttle.Acquire(context.Background(), "https://example.org/api")
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
		release()
	}
	elapsed := time.Since(start)

	// First acquire is immediate, the next two wait one interval each
	if elapsed < 100*time.Millisecond {
		t.Errorf("Expected at least 100ms for 3 acquires, got %v", elapsed)
	}
}

func TestThrottle_HostsAreIndependent(t *testing.T) {
	throttle := NewThrottle(time.Second)

	start := time.Now()
	for _, u := range []string{"https://a.example/x", "https://b.example/x", "https://c.example/x"} {
		release, err := throttle.Acquire(context.Background(), u)
		if err != nil {
			t.Fatalf("Acquire for %s failed: %v", u, err)
		}
		release()
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected first acquires on distinct hosts to be immediate, took %v", elapsed)
	}
}

func TestThrottle_SetHostIntervalOverrides(t *testing.T) {
	throttle := NewThrottle(time.Millisecond)
	throttle.SetHostInterval("slow.example", 80*time.Millisecond)

	start := time.Now()
	for i := 0; i < 2; i++ {
		release, err := throttle.Acquire(context.Background(), "https://slow.example/api")
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
		release()
	}

	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected crawl-delay override to apply, took only %v", elapsed)
	}
}

func TestThrottle_CancelledContext(t *testing.T) {
	throttle := NewThrottle(time.Hour)

	// Drain the single burst token
	release, err := throttle.Acquire(context.Background(), "https://example.org/")
	if err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}
	release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := throttle.Acquire(ctx, "https://example.org/"); err == nil {
		t.Error("Expected error from cancelled acquire, got nil")
	}
}
