package realtime

import "sync"

// Room namespace prefixes. A room is a label, not an object: it exists while
// at least one member is present.
const (
	ChatRoomPrefix    = "chat:"
	PrivateRoomPrefix = "private_chat:"
	PollRoomPrefix    = "poll:"
	EventRoomPrefix   = "event:"
)

// Rooms is the bidirectional index of (user <-> set of rooms). Joining always
// updates both sides under one lock, so membership can never leak one-sided
// entries that would cause phantom broadcasts.
type Rooms struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{}
	byRoom map[string]map[string]struct{}
}

// NewRooms constructs an empty membership index.
func NewRooms() *Rooms {
	return &Rooms{
		byUser: make(map[string]map[string]struct{}),
		byRoom: make(map[string]map[string]struct{}),
	}
}

// Join records the user as a member of the room. Idempotent.
func (r *Rooms) Join(userID string, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][room] = struct{}{}

	if r.byRoom[room] == nil {
		r.byRoom[room] = make(map[string]struct{})
	}
	r.byRoom[room][userID] = struct{}{}
}

// Leave removes the user from the room, cleaning up both sides of the index.
func (r *Rooms) Leave(userID string, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(userID, room)
}

// LeaveAll removes the user from every room and returns the rooms left.
// Invoked on disconnect so a dead connection never lingers in any roster.
func (r *Rooms) LeaveAll(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	memberships := r.byUser[userID]
	rooms := make([]string, 0, len(memberships))
	for room := range memberships {
		rooms = append(rooms, room)
	}

	for _, room := range rooms {
		r.leaveLocked(userID, room)
	}
	return rooms
}

func (r *Rooms) leaveLocked(userID string, room string) {
	if members, ok := r.byUser[userID]; ok {
		delete(members, room)
		if len(members) == 0 {
			delete(r.byUser, userID)
		}
	}

	if members, ok := r.byRoom[room]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(r.byRoom, room)
		}
	}
}

// Members returns the user ids currently in the room.
func (r *Rooms) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.byRoom[room]))
	for userID := range r.byRoom[room] {
		members = append(members, userID)
	}
	return members
}

// IsMember reports whether the user is currently in the room.
func (r *Rooms) IsMember(userID string, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byRoom[room][userID]
	return ok
}

// UserRooms returns the rooms the user currently belongs to.
func (r *Rooms) UserRooms(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.byUser[userID]))
	for room := range r.byUser[userID] {
		rooms = append(rooms, room)
	}
	return rooms
}
