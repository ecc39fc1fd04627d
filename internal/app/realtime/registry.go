package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"eventlive/internal/pkg/logx"
)

// connection is the registry's record of one live transport.
type connection struct {
	transport   Transport
	email       string
	connectedAt time.Time
}

// Registry maps a stable user identity to its live transport connection and
// enforces the one-canonical-connection-per-user invariant: a newer connection
// for a user evicts the older one.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]connection

	logger zerolog.Logger
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]connection),
		logger: logx.Logger().With().Str("component", "registry").Logger(),
	}
}

// Register records the transport as the canonical connection for its user. If
// an older connection is still on record it is kicked first, so stale sockets
// never receive broadcasts meant for the new session.
func (r *Registry) Register(t Transport) {
	userID := t.User().ID

	r.mu.Lock()
	old, hadOld := r.byUser[userID]
	r.byUser[userID] = connection{
		transport:   t,
		email:       t.User().Email,
		connectedAt: time.Now(),
	}
	r.mu.Unlock()

	if hadOld && old.transport.ID() != t.ID() {
		r.logger.Warn().
			Str("user_id", userID).
			Str("old_transport", old.transport.ID()).
			Str("new_transport", t.ID()).
			Msg("Duplicate session detected. Evicting older connection.")

		old.transport.Kick("Session replaced by a new connection.")
	}

	r.logger.Info().
		Str("user_id", userID).
		Str("transport", t.ID()).
		Msg("Connection registered.")
}

// Deregister removes the mapping for the transport's user, but only if the
// given transport is still the one on record. A late close event from an
// already-evicted transport must not remove the newer connection. Returns
// true if the mapping was removed.
func (r *Registry) Deregister(t Transport) bool {
	userID := t.User().ID

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[userID]
	if !ok || current.transport.ID() != t.ID() {
		r.logger.Info().
			Str("user_id", userID).
			Str("transport", t.ID()).
			Msg("Ignoring deregister for stale connection.")
		return false
	}

	delete(r.byUser, userID)

	r.logger.Info().
		Str("user_id", userID).
		Str("transport", t.ID()).
		Msg("Connection deregistered.")
	return true
}

// Get returns the canonical transport for a user, if online.
func (r *Registry) Get(userID string) (Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	return conn.transport, true
}

// IsOnline reports whether the user has a live canonical connection. This map
// is the single source of truth for online state.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUser[userID]
	return ok
}

// OnlineUsers returns the ids of all currently connected users.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		users = append(users, id)
	}
	return users
}

// Transports returns every registered transport. Used by all-connection
// broadcasts and the dead-connection sweep.
func (r *Registry) Transports() []Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Transport, 0, len(r.byUser))
	for _, conn := range r.byUser {
		out = append(out, conn.transport)
	}
	return out
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
