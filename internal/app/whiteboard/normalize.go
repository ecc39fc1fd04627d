package whiteboard

import "strings"

// RoomPrefix is the namespace prefix for canonical whiteboard room keys.
const RoomPrefix = "whiteboard:"

// eventAliasPrefix is the legacy addressing form some clients use for a board
// backed by an event ("event-42" instead of "42"). Both forms must converge on
// the same canonical key so that events issued through either naming land in
// the same room state.
const eventAliasPrefix = "event-"

// NormalizeRoom maps any accepted whiteboard addressing form to the canonical
// room key. Accepted inputs: a bare id ("42"), the event alias ("event-42"),
// an already-canonical key ("whiteboard:42"), or a canonical key wrapping the
// alias ("whiteboard:event-42"). All four yield "whiteboard:42".
func NormalizeRoom(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, RoomPrefix)
	id = strings.TrimPrefix(id, eventAliasPrefix)
	return RoomPrefix + id
}

// BareID strips the canonical prefix from a whiteboard room key.
func BareID(room string) string {
	return strings.TrimPrefix(room, RoomPrefix)
}

// IsWhiteboardRoom reports whether a room key belongs to the whiteboard namespace.
func IsWhiteboardRoom(room string) bool {
	return strings.HasPrefix(room, RoomPrefix)
}
