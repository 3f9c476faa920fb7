package bot

import (
	"sync"
	"time"
)

type cooldownEntry struct {
	tokens   float64
	last     time.Time
	lastSeen time.Time
}

// Limiter implements a token bucket cooldown keyed by user identifier.
type Limiter struct {
	mu         sync.Mutex
	entries    map[string]*cooldownEntry
	maxTokens  float64
	refillRate float64
	ttl        time.Duration
	stop       chan struct{}
	stopped    sync.Once
	now        func() time.Time
}

// NewLimiter constructs a cooldown limiter with the provided settings.
func NewLimiter(maxTokens int, refillPerSecond float64, ttl time.Duration) *Limiter {
	l := &Limiter{
		entries:    make(map[string]*cooldownEntry),
		maxTokens:  float64(maxTokens),
		refillRate: refillPerSecond,
		ttl:        ttl,
		stop:       make(chan struct{}),
		now:        time.Now,
	}

	if ttl > 0 {
		ticker := time.NewTicker(ttl)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					l.pruneStale()
				case <-l.stop:
					return
				}
			}
		}()
	}

	return l
}

// Close stops the background pruning goroutine. Allow keeps working after
// Close; only the stale-entry cleanup ends.
func (l *Limiter) Close() {
	l.stopped.Do(func() {
		close(l.stop)
	})
}

// Allow consumes a token for the provided key if possible.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &cooldownEntry{
			tokens:   l.maxTokens,
			last:     now,
			lastSeen: now,
		}
		l.entries[key] = entry
	}

	elapsed := now.Sub(entry.last).Seconds()
	if elapsed > 0 {
		entry.tokens += elapsed * l.refillRate
		if entry.tokens > l.maxTokens {
			entry.tokens = l.maxTokens
		}
		entry.last = now
	}

	if entry.tokens < 1 {
		entry.lastSeen = now
		return false
	}

	entry.tokens -= 1
	entry.lastSeen = now
	return true
}

func (l *Limiter) pruneStale() {
	if l.ttl <= 0 {
		return
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.entries, key)
		}
	}
}
