// Package ratelimit enforces per-client request limits on the public
// booking and search routes.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter tracks request timestamps per client key (normally the remote
// IP) over sliding minute and hour windows.
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	clients map[string]*clientWindows
	mu      sync.Mutex
}

type clientWindows struct {
	minuteWindow []time.Time
	hourWindow   []time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		clients:           make(map[string]*clientWindows),
	}
}

// AllowRequest checks whether a request from the given client is allowed.
// Returns true if allowed, false if a limit is exceeded.
func (rl *RateLimiter) AllowRequest(clientKey string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[clientKey]
	if !ok {
		cw = &clientWindows{}
		rl.clients[clientKey] = cw
	}

	// Clean up old entries
	cw.minuteWindow = filterTimes(cw.minuteWindow, now.Add(-1*time.Minute))
	cw.hourWindow = filterTimes(cw.hourWindow, now.Add(-1*time.Hour))

	// Check limits
	if rl.requestsPerMinute > 0 && len(cw.minuteWindow) >= rl.requestsPerMinute {
		return false
	}
	if rl.requestsPerHour > 0 && len(cw.hourWindow) >= rl.requestsPerHour {
		return false
	}

	// Record the request
	cw.minuteWindow = append(cw.minuteWindow, now)
	cw.hourWindow = append(cw.hourWindow, now)

	return true
}

// Stats contains rate limiter statistics for one client
type Stats struct {
	Enabled            bool `json:"enabled"`
	RequestsLastMinute int  `json:"requests_last_minute"`
	RequestsLastHour   int  `json:"requests_last_hour"`
	LimitPerMinute     int  `json:"limit_per_minute"`
	LimitPerHour       int  `json:"limit_per_hour"`
}

// GetStats returns current statistics for the given client key
func (rl *RateLimiter) GetStats(clientKey string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[clientKey]
	if !ok {
		return Stats{Enabled: true, LimitPerMinute: rl.requestsPerMinute, LimitPerHour: rl.requestsPerHour}
	}

	cw.minuteWindow = filterTimes(cw.minuteWindow, now.Add(-1*time.Minute))
	cw.hourWindow = filterTimes(cw.hourWindow, now.Add(-1*time.Hour))

	return Stats{
		Enabled:            true,
		RequestsLastMinute: len(cw.minuteWindow),
		RequestsLastHour:   len(cw.hourWindow),
		LimitPerMinute:     rl.requestsPerMinute,
		LimitPerHour:       rl.requestsPerHour,
	}
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients = make(map[string]*clientWindows)
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := make([]time.Time, 0, len(times))
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}
