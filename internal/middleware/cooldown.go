package middleware

import (
	"sync"
	"time"
)

// Cooldown remembers when each key last acted and refuses a repeat within
// the window. The download button uses it per client and listing.
type Cooldown struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// SetClock replaces the time source.
func (c *Cooldown) SetClock(now func() time.Time) {
	c.now = now
}

// Allow reports whether key is outside its window and, if so, starts a new one.
func (c *Cooldown) Allow(key string) bool {
	if c.window <= 0 {
		return true
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if at, ok := c.last[key]; ok && now.Sub(at) < c.window {
		return false
	}
	c.last[key] = now
	if len(c.last) > maxTrackedClients {
		c.sweep(now)
	}
	return true
}

// sweep drops expired entries; caller holds mu.
func (c *Cooldown) sweep(now time.Time) {
	for k, at := range c.last {
		if now.Sub(at) >= c.window {
			delete(c.last, k)
		}
	}
}

func DownloadKey(clientIP, appID string) string {
	return clientIP + "|" + appID
}
