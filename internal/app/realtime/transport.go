/*
Package realtime contains the stateful collaboration core: the connection
registry, room membership index, broadcast router, gateway facade, and the
websocket client lifecycle. All state is single-process and in-memory;
durable effects go through the persistence collaborator fire-and-forget.
*/
package realtime

import "eventlive/internal/app/user"

// Transport is one physical realtime connection from a client process. The
// gorilla-backed Client implements it; tests substitute fakes.
type Transport interface {
	// ID is the unique transport id, distinct from the user id: a user who
	// reconnects gets a new transport id.
	ID() string

	// User is the authenticated identity bound to the connection.
	User() user.User

	// Send queues a named event for delivery. It must not block: a full send
	// queue is an error, not a stall on the broadcast path.
	Send(event string, payload any) error

	// Kick closes the connection with a session-replaced close frame, used
	// when a newer connection for the same user evicts this one.
	Kick(reason string)

	// Alive reports whether the underlying connection is still usable. The
	// periodic sweep uses it to evict entries whose close event was missed.
	Alive() bool

	// Close tears the connection down without a reason frame.
	Close() error
}

// Envelope is the wire frame for every named event in both directions.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}
