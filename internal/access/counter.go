// Package access tracks how often an identity has touched an object inside
// a sliding reset window. The resulting count feeds the accessCount rule
// condition, so a request's own touch is included in the threshold it is
// evaluated against.
package access

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Entries idle for this many reset windows are dropped by Sweep.
const sweepIdleWindows = 5

type entry struct {
	count int
	last  time.Time
}

// Counter is shared across concurrent requests. The check-then-act sequence
// per key (elapsed check, reset or increment, timestamp update) runs under
// the lock so simultaneous touches on one key never lose an increment or
// reset incorrectly.
type Counter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*entry
}

func NewCounter(window time.Duration) *Counter {
	return &Counter{
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Touch registers one access and returns the count valid for this request.
// A blank identity resolves to requestedBy. The count resets to 1 when the
// gap since the previous touch exceeds the window; the first touch of a key
// also yields 1.
func (c *Counter) Touch(identityID, requestedByID, objectID string, now time.Time) int {
	key := Key(identityID, requestedByID, objectID)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if !ok || now.Sub(e.last) > c.window {
		e.count = 1
	} else {
		e.count++
	}
	e.last = now
	return e.count
}

// Key builds the composite counter key. Exposed for log inspection.
func Key(identityID, requestedByID, objectID string) string {
	if strings.TrimSpace(identityID) == "" {
		identityID = requestedByID
	}
	return identityID + ":" + requestedByID + "::" + objectID
}

// Sweep evicts entries whose last access is several windows in the past and
// returns how many were dropped. Counts observable within the window are
// unaffected: an evicted key would have reset to 1 on its next touch anyway.
func (c *Counter) Sweep(now time.Time) int {
	cutoff := now.Add(-time.Duration(sweepIdleWindows) * c.window)

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key, e := range c.entries {
		if e.last.Before(cutoff) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Run sweeps periodically until the context is cancelled.
func (c *Counter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(time.Now())
		}
	}
}

// Len reports the number of live keys.
func (c *Counter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
