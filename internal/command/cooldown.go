package command

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Cooldown is a sliding-window rate limiter: at most Rate uses per Per
// window, keyed by the event's resolved bucket dimensions. Windows expire
// lazily on the next check. Safe for concurrent use.
type Cooldown struct {
	Rate    int
	Per     time.Duration
	Buckets []events.Bucket

	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// NewCooldown builds a cooldown. With no buckets given it scopes per user.
func NewCooldown(rate int, per time.Duration, buckets ...events.Bucket) *Cooldown {
	if len(buckets) == 0 {
		buckets = []events.Bucket{events.BucketUser}
	}
	return &Cooldown{
		Rate:    rate,
		Per:     per,
		Buckets: buckets,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (c *Cooldown) key(ev events.Event) string {
	keyed, ok := ev.(events.Keyed)
	if !ok {
		return "*"
	}
	parts := make([]string, len(c.Buckets))
	for i, b := range c.Buckets {
		parts[i] = keyed.BucketValue(b)
	}
	return strings.Join(parts, ":")
}

// RetryAfter returns how long until the event's bucket frees up, or zero if
// the event would be allowed right now.
func (c *Cooldown) RetryAfter(ev events.Event) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	key := c.key(ev)
	window := c.prune(key, now)
	if len(window) < c.Rate {
		return 0
	}
	return c.Per - now.Sub(window[0])
}

// Update records one use of the event's bucket.
func (c *Cooldown) Update(ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	key := c.key(ev)
	window := c.prune(key, now)
	c.windows[key] = append(window, now)
}

// Check raises OnCooldownError when the event's bucket is exhausted,
// otherwise records the use.
func (c *Cooldown) Check(ev events.Event) error {
	if retry := c.RetryAfter(ev); retry > 0 {
		return &OnCooldownError{RetryAfter: retry, Cooldown: c}
	}
	c.Update(ev)
	return nil
}

// prune drops timestamps older than the window. Caller holds the lock.
func (c *Cooldown) prune(key string, now time.Time) []time.Time {
	window := c.windows[key]
	keep := window[:0]
	for _, t := range window {
		if now.Sub(t) < c.Per {
			keep = append(keep, t)
		}
	}
	if len(keep) == 0 {
		delete(c.windows, key)
		return nil
	}
	c.windows[key] = keep
	return keep
}

// Describe renders the cooldown for help text, e.g. "5s (user)" or
// "3x/60s (user, channel)".
func (c *Cooldown) Describe() string {
	names := make([]string, len(c.Buckets))
	for i, b := range c.Buckets {
		names[i] = b.String()
	}
	scope := strings.Join(names, ", ")
	per := c.Per.Round(time.Second).Seconds()
	if c.Rate == 1 {
		return fmt.Sprintf("%gs (%s)", per, scope)
	}
	return fmt.Sprintf("%dx/%gs (%s)", c.Rate, per, scope)
}
