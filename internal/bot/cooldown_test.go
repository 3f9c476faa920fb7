package bot

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	t.Parallel()

	l := NewLimiter(3, 3, time.Minute)

	current := time.Unix(0, 0)
	l.now = func() time.Time {
		return current
	}

	key := "user-1"

	for i := 0; i < 3; i++ {
		if !l.Allow(key) {
			t.Fatalf("expected call %d to be allowed", i+1)
		}
	}

	if l.Allow(key) {
		t.Fatalf("expected fourth call to be denied")
	}

	current = current.Add(time.Second)

	if !l.Allow(key) {
		t.Fatalf("expected call after refill to be allowed")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 1.0/30, time.Minute)

	current := time.Unix(0, 0)
	l.now = func() time.Time {
		return current
	}

	if !l.Allow("user-1") {
		t.Fatalf("expected first user to be allowed")
	}

	if l.Allow("user-1") {
		t.Fatalf("expected first user to hit the cooldown")
	}

	if !l.Allow("user-2") {
		t.Fatalf("expected second user to be unaffected")
	}
}

func TestLimiterCooldownWindow(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 1.0/30, time.Minute)

	current := time.Unix(0, 0)
	l.now = func() time.Time {
		return current
	}

	if !l.Allow("user-1") {
		t.Fatalf("expected first call to be allowed")
	}

	current = current.Add(10 * time.Second)
	if l.Allow("user-1") {
		t.Fatalf("expected call inside the window to be denied")
	}

	current = current.Add(25 * time.Second)
	if !l.Allow("user-1") {
		t.Fatalf("expected call after the window to be allowed")
	}
}

func TestLimiterCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 1, time.Minute)

	l.Close()
	l.Close()

	if !l.Allow("user-1") {
		t.Fatalf("expected Allow to keep working after Close")
	}
}

func TestLimiterPruneStale(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 1, time.Minute)

	current := time.Unix(0, 0)
	l.now = func() time.Time {
		return current
	}

	l.Allow("user-1")

	current = current.Add(2 * time.Minute)
	l.pruneStale()

	l.mu.Lock()
	remaining := len(l.entries)
	l.mu.Unlock()

	if remaining != 0 {
		t.Fatalf("expected stale entries to be pruned, %d left", remaining)
	}
}
