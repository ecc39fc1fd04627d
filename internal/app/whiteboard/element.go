package whiteboard

import (
	"encoding/json"
	"time"
)

// Position is a cursor location on the board, in client canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is a single drawable item on a whiteboard. Elements form an ordered
// list per room: order reflects creation order, and in-place updates never
// change an element's position in the list.
type Element struct {
	// ID is the canonical element identifier. Client-supplied ids are honored;
	// a missing id is replaced with a server-assigned one, which the origin
	// client reconciles through the element-added echo.
	ID string `json:"id"`

	// Type is the client-defined element kind (e.g. "rect", "path", "text").
	Type string `json:"type"`

	// Data is the opaque element payload. The server never interprets it.
	Data json.RawMessage `json:"data,omitempty"`

	// AuthorID is the user who created the element.
	AuthorID string `json:"authorId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is a point-in-time copy of a room's element list, handed to the
// persistence collaborator. The in-memory list stays authoritative for the
// room's active lifetime; persistence is best effort.
type Snapshot struct {
	RoomID   string    `json:"roomId"`
	Elements []Element `json:"elements"`
	TakenAt  time.Time `json:"takenAt"`
}

// Archiver receives snapshots for durable storage. Implementations must not
// block: submission is fire-and-forget relative to the broadcast path, and a
// failed persist never rolls back the in-memory state.
type Archiver interface {
	SubmitSnapshot(snap Snapshot)
}
