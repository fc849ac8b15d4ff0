package admission

import (
	"fmt"
	"sync"
	"time"
)

// sweepEvery controls how often Admit scans for clients whose entire window
// has gone stale. Sweeping is purely a memory bound on the client map; it
// never changes an admission decision, because a fully stale window and a
// missing window behave identically.
const sweepEvery = 4096

// clientWindow holds the request instants for one client, oldest first.
type clientWindow struct {
	times []time.Time
}

// prune drops every instant at or before cutoff from the front.
func (w *clientWindow) prune(cutoff time.Time) {
	i := 0
	for i < len(w.times) && !w.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
}

// Limiter admits at most maxRequests requests per client within a trailing
// continuous window. The window slides with every call, so there are no
// bucket-boundary bursts; memory per client is capped at maxRequests
// timestamps.
//
// A rejected request does not consume quota. Admission depends only on the
// client's own history and the current time; clients never affect each
// other.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	clients     map[string]*clientWindow
	admits      int

	now func() time.Time
}

// NewLimiter creates a limiter allowing maxRequests per client within
// window. Both values must be positive.
func NewLimiter(maxRequests int, window time.Duration) (*Limiter, error) {
	if maxRequests <= 0 {
		return nil, fmt.Errorf("rate limit max requests must be positive, got %d", maxRequests)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %v", window)
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
	}, nil
}

// Admit decides whether a request from clientID may proceed. On admission it
// records the request instant and returns the remaining quota; on rejection
// it returns (false, 0) and records nothing.
func (l *Limiter) Admit(clientID string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	l.admits++
	if l.admits%sweepEvery == 0 {
		l.sweep(cutoff)
	}

	w, ok := l.clients[clientID]
	if !ok {
		w = &clientWindow{}
		l.clients[clientID] = w
	}
	w.prune(cutoff)

	if len(w.times) >= l.maxRequests {
		return false, 0
	}
	w.times = append(w.times, now)
	return true, l.maxRequests - len(w.times)
}

// Remaining reports the quota clientID has left without admitting anything.
// Stale instants are pruned as in Admit.
func (l *Limiter) Remaining(clientID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[clientID]
	if !ok {
		return l.maxRequests
	}
	w.prune(l.now().Add(-l.window))

	remaining := l.maxRequests - len(w.times)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaxRequests returns the configured per-client quota.
func (l *Limiter) MaxRequests() int { return l.maxRequests }

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// sweep removes clients whose newest instant has fallen out of the window.
// Must be called with the lock held.
func (l *Limiter) sweep(cutoff time.Time) {
	for id, w := range l.clients {
		if len(w.times) == 0 || !w.times[len(w.times)-1].After(cutoff) {
			delete(l.clients, id)
		}
	}
}
