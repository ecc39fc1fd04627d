package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a server-initiated message pushed to connected clients on
// behalf of an out-of-scope service (task assignment, event creation, friend
// requests, ...).
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Gateway is the facade through which external services inject notifications
// into the realtime layer without depending on transport details. It performs
// no authorization: callers are trusted to have already checked access.
type Gateway struct {
	registry    *Registry
	broadcaster *Broadcaster
}

// NewGateway constructs the facade over the registry and broadcaster.
func NewGateway(registry *Registry, broadcaster *Broadcaster) *Gateway {
	return &Gateway{
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// NotifyUser pushes a notification to one user's canonical connection.
// A no-op when the user is offline.
func (g *Gateway) NotifyUser(userID string, n Notification) {
	g.broadcaster.ToUser(userID, EventNotificationNew, g.stamp(n))
}

// NotifyRoom pushes a notification to every member of a room.
func (g *Gateway) NotifyRoom(room string, n Notification) {
	g.broadcaster.ToRoom(room, EventNotificationNew, g.stamp(n))
}

// IsOnline reports whether the user currently has a live connection.
func (g *Gateway) IsOnline(userID string) bool {
	return g.registry.IsOnline(userID)
}

// OnlineUsers returns the ids of all currently connected users.
func (g *Gateway) OnlineUsers() []string {
	return g.registry.OnlineUsers()
}

func (g *Gateway) stamp(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return n
}
