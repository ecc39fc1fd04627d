package realtime

import (
	"sync"
	"time"
)

const (
	// ConnWindow is the span of one connection-attempt counting window.
	ConnWindow = 60 * time.Second

	// ConnWindowLimit is the number of connection attempts admitted per user
	// per window. The sixth attempt inside a window is denied.
	ConnWindowLimit = 5
)

// connWindow is one user's attempt counter.
type connWindow struct {
	start time.Time
	count int
}

// ConnLimiter gates new connections per user per time window. It is a fixed
// window counter, not sliding: bursts straddling a window boundary can admit
// up to twice the nominal rate, an accepted tradeoff for simplicity. A denial
// is fatal for that connection attempt; the caller closes the connection
// without queueing or retrying.
type ConnLimiter struct {
	mu      sync.Mutex
	windows map[string]*connWindow
}

// NewConnLimiter constructs an empty per-user connection limiter.
func NewConnLimiter() *ConnLimiter {
	return &ConnLimiter{
		windows: make(map[string]*connWindow),
	}
}

// Admit records a connection attempt for the user at the given instant and
// reports whether the attempt is allowed.
func (l *ConnLimiter) Admit(userID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[userID]
	if !ok || now.Sub(w.start) > ConnWindow {
		l.windows[userID] = &connWindow{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= ConnWindowLimit
}

// Prune drops window records that have fully elapsed, so the map does not
// grow with every identity ever seen. Called from the hub's periodic sweep.
func (l *ConnLimiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for userID, w := range l.windows {
		if now.Sub(w.start) > ConnWindow {
			delete(l.windows, userID)
		}
	}
}
