package whiteboard

import (
	"hash/fnv"

	"eventlive/internal/app/user"
)

// palette holds the colors assigned to collaborators. Assignment is a pure
// function of the user id, so a user keeps the same color across leave/rejoin
// cycles within a process lifetime.
var palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
	"#9a6324", "#800000", "#808000", "#000075", "#fabebe",
}

// ColorFor returns the deterministic collaborator color for a user id.
func ColorFor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Participant is a user's live presence record scoped to one whiteboard room.
// At most one Participant exists per (room, user); a reconnect updates the
// transport id in place rather than duplicating the record.
type Participant struct {
	User   user.User `json:"user"`
	Color  string    `json:"color"`
	Cursor *Position `json:"cursor,omitempty"`
	Active bool      `json:"active"`

	// transportID identifies the live connection backing this participant.
	// Not serialized; clients never see transport identifiers.
	transportID string
}

// TransportID returns the id of the connection currently backing the participant.
func (p *Participant) TransportID() string {
	return p.transportID
}
