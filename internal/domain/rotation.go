// Package domain contains the core business entities and value objects.
package domain

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoProvidersAvailable is returned when every provider is marked down
// or the rotation is empty.
var ErrNoProvidersAvailable = errors.New("no providers available in the rotation")

// Rotation is a thread-safe round-robin selector over provider names.
// When a provider fails it can be marked down; it re-enters the rotation
// automatically after the cooldown elapses. The rotation holds no provider
// state beyond names and down-timestamps, so the gateway can consult it
// from any number of concurrent requests.
type Rotation struct {
	// names holds the providers currently eligible for selection.
	names []string

	// down tracks providers removed from rotation with their removal time.
	down map[string]time.Time

	// index is the atomic counter for round-robin selection.
	index int64

	// mu protects the names slice.
	mu sync.RWMutex

	// downMu protects the down map (separate mutex to reduce contention).
	downMu sync.RWMutex

	// cooldown is how long a provider stays down before automatic revival.
	cooldown time.Duration

	// known stores the initial provider set for revival checks.
	known map[string]struct{}
}

// NewRotation creates a rotation over the given provider names.
// Pass 0 for cooldown to disable automatic revival (manual Revive only).
// Duplicate and empty names are dropped.
func NewRotation(names []string, cooldown time.Duration) *Rotation {
	r := &Rotation{
		names:    make([]string, 0, len(names)),
		down:     make(map[string]time.Time),
		cooldown: cooldown,
		known:    make(map[string]struct{}),
	}

	seen := make(map[string]struct{})
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, exists := seen[name]; !exists {
			seen[name] = struct{}{}
			r.names = append(r.names, name)
			r.known[name] = struct{}{}
		}
	}

	return r
}

// Next returns the next eligible provider name using round-robin selection.
// Safe for concurrent use. Returns ErrNoProvidersAvailable when the
// rotation is empty or every provider is down.
func (r *Rotation) Next() (string, error) {
	r.reviveExpired()

	r.mu.RLock()
	count := len(r.names)
	if count == 0 {
		r.mu.RUnlock()
		return "", ErrNoProvidersAvailable
	}

	// atomic.AddInt64 returns the new value, so subtract 1 for the current slot
	idx := atomic.AddInt64(&r.index, 1)
	name := r.names[int((idx-1)%int64(count))]
	r.mu.RUnlock()

	return name, nil
}

// MarkDown temporarily removes a provider from the rotation. The provider
// is restored after the cooldown elapses, or earlier via Revive.
func (r *Rotation) MarkDown(name string) {
	if name == "" {
		return
	}
	if _, exists := r.known[name]; !exists {
		return
	}

	r.downMu.Lock()
	r.down[name] = time.Now()
	r.downMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Preserve order for predictable round-robin.
	remaining := make([]string, 0, len(r.names))
	for _, n := range r.names {
		if n != name {
			remaining = append(remaining, n)
		}
	}
	r.names = remaining
}

// Revive manually restores a down provider to the rotation.
func (r *Rotation) Revive(name string) {
	if name == "" {
		return
	}
	if _, exists := r.known[name]; !exists {
		return
	}

	r.downMu.Lock()
	_, wasDown := r.down[name]
	delete(r.down, name)
	r.downMu.Unlock()

	if !wasDown {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.names {
		if n == name {
			return
		}
	}
	r.names = append(r.names, name)
}

// reviveExpired restores every down provider whose cooldown has elapsed.
// Called internally by Next for automatic recovery.
func (r *Rotation) reviveExpired() {
	if r.cooldown == 0 {
		return
	}

	now := time.Now()
	var expired []string

	r.downMu.RLock()
	for name, downAt := range r.down {
		if now.Sub(downAt) >= r.cooldown {
			expired = append(expired, name)
		}
	}
	r.downMu.RUnlock()

	for _, name := range expired {
		r.Revive(name)
	}
}

// ActiveCount returns the number of providers currently in rotation.
func (r *Rotation) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// DownCount returns the number of providers currently marked down.
func (r *Rotation) DownCount() int {
	r.downMu.RLock()
	defer r.downMu.RUnlock()
	return len(r.down)
}

// TotalCount returns the total number of managed providers (active + down).
func (r *Rotation) TotalCount() int {
	return len(r.known)
}

// Active returns a copy of the provider names currently in rotation.
func (r *Rotation) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// IsDown reports whether a specific provider is currently marked down.
func (r *Rotation) IsDown(name string) bool {
	r.downMu.RLock()
	defer r.downMu.RUnlock()
	_, down := r.down[name]
	return down
}
