/*
Package whiteboard contains the collaboration engine: the authoritative
per-room state of collaborators (cursor, color, activity) and the ordered list
of drawable elements, plus the broadcasting rules for every board mutation.

All mutations to a given room's participant map and element list are
linearized behind a per-room mutex, so two users editing concurrently can
never lose updates. The in-memory state is authoritative for the room's
active lifetime; snapshots go to the persistence collaborator fire-and-forget.
*/
package whiteboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventlive/internal/app/user"
	"eventlive/internal/pkg/logx"
)

// Outbound event names emitted by the engine.
const (
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventCurrentUsers   = "current-users"
	EventBoardState     = "whiteboard-state"
	EventCursorMoved    = "cursor-moved"
	EventElementAdded   = "element-added"
	EventElementUpdated = "element-updated"
	EventElementDeleted = "element-deleted"
	EventBoardCleared   = "whiteboard-cleared"
)

// Broadcaster is the engine's outbound seam. The realtime layer implements it
// over the connection registry and room membership index.
type Broadcaster interface {
	ToRoom(room string, event string, payload any)
	ToRoomExceptSender(room string, senderTransportID string, event string, payload any)
	ToUser(userID string, event string, payload any)
}

// RosterPayload carries the current participant roster of a room.
type RosterPayload struct {
	RoomID       string        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

// StatePayload carries the element backlog sent to a joining client.
type StatePayload struct {
	RoomID   string    `json:"roomId"`
	Elements []Element `json:"elements"`
}

// PresencePayload announces a new participant to the rest of the room.
type PresencePayload struct {
	RoomID      string      `json:"roomId"`
	Participant Participant `json:"participant"`
}

// DeparturePayload announces a participant leaving a room.
type DeparturePayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// CursorPayload carries a collaborator's cursor position.
type CursorPayload struct {
	RoomID   string   `json:"roomId"`
	UserID   string   `json:"userId"`
	Position Position `json:"position"`
}

// ElementPayload carries a full element for add/update broadcasts.
type ElementPayload struct {
	RoomID  string  `json:"roomId"`
	Element Element `json:"element"`
}

// ElementRemovedPayload carries only the id of a deleted element.
type ElementRemovedPayload struct {
	RoomID    string `json:"roomId"`
	ElementID string `json:"elementId"`
}

// ClearedPayload signals that a room's element list was emptied.
type ClearedPayload struct {
	RoomID string `json:"roomId"`
}

// boardRoom is the state of a single whiteboard room. Its mutex linearizes
// every mutation to the participant map and element list.
type boardRoom struct {
	mu           sync.Mutex
	participants map[string]*Participant
	elements     []Element
}

// Engine owns all whiteboard room state. External callers never touch room
// maps directly; every mutation goes through an Engine method.
type Engine struct {
	mu    sync.RWMutex
	rooms map[string]*boardRoom

	bc       Broadcaster
	archiver Archiver

	logger zerolog.Logger
}

// NewEngine constructs the collaboration engine. archiver may be nil, in which
// case snapshots are not persisted.
func NewEngine(bc Broadcaster, archiver Archiver) *Engine {
	return &Engine{
		rooms:    make(map[string]*boardRoom),
		bc:       bc,
		archiver: archiver,
		logger:   logx.Logger().With().Str("component", "whiteboard").Logger(),
	}
}

// getOrCreateRoom returns the room for an already-normalized key, creating it
// on first use.
func (e *Engine) getOrCreateRoom(room string) *boardRoom {
	e.mu.RLock()
	br, ok := e.rooms[room]
	e.mu.RUnlock()

	if ok {
		return br
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if br, ok = e.rooms[room]; ok {
		return br
	}

	br = &boardRoom{participants: make(map[string]*Participant)}
	e.rooms[room] = br

	e.logger.Info().Str("room", room).Msg("Whiteboard room created.")
	return br
}

// getRoom returns the room for an already-normalized key, or nil.
func (e *Engine) getRoom(room string) *boardRoom {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rooms[room]
}

// JoinRoom adds a user to a whiteboard room and returns the canonical room key.
//
// A fresh join creates the participant with its deterministic color, sends the
// existing roster (excluding self) and the element backlog to the joining user,
// and announces the participant to everyone else. If the user already has a
// participant record in the room (reconnect after a transient disconnect), the
// transport id is updated in place and only the roster and backlog are resent
// to the rejoining user; others never see a duplicate joined event because the
// user never structurally left.
func (e *Engine) JoinRoom(roomID string, u user.User, transportID string) (string, bool) {
	room := NormalizeRoom(roomID)
	br := e.getOrCreateRoom(room)

	br.mu.Lock()

	p, rejoin := br.participants[u.ID]
	if rejoin {
		p.transportID = transportID
		p.Active = true
	} else {
		p = &Participant{
			User:        u,
			Color:       ColorFor(u.ID),
			Active:      true,
			transportID: transportID,
		}
		br.participants[u.ID] = p
	}

	joined := *p
	roster := br.rosterLocked(u.ID)
	backlog := br.elementsLocked()

	br.mu.Unlock()

	e.bc.ToUser(u.ID, EventCurrentUsers, RosterPayload{RoomID: room, Participants: roster})
	e.bc.ToUser(u.ID, EventBoardState, StatePayload{RoomID: room, Elements: backlog})

	if !rejoin {
		e.bc.ToRoomExceptSender(room, transportID, EventUserJoined, PresencePayload{RoomID: room, Participant: joined})
		e.logger.Info().Str("room", room).Str("user_id", u.ID).Msg("Participant joined whiteboard.")
	} else {
		e.logger.Info().Str("room", room).Str("user_id", u.ID).Msg("Participant rejoined whiteboard; transport updated in place.")
	}

	return room, rejoin
}

// LeaveRoom removes a user's participant record from one room and announces
// the departure to the remaining members. Returns false if the user was not a
// participant. Element state is retained until an explicit clear or process
// restart.
func (e *Engine) LeaveRoom(roomID string, userID string) bool {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return false
	}

	br.mu.Lock()

	p, ok := br.participants[userID]
	if !ok {
		br.mu.Unlock()
		return false
	}

	leaverTransport := p.transportID
	delete(br.participants, userID)
	empty := len(br.participants) == 0

	var final []Element
	if empty {
		final = br.elementsLocked()
	}

	br.mu.Unlock()

	// Excluding the leaver's transport makes the departure broadcast safe
	// regardless of whether membership cleanup has already removed the user.
	e.bc.ToRoomExceptSender(room, leaverTransport, EventUserLeft, DeparturePayload{RoomID: room, UserID: userID})
	e.logger.Info().Str("room", room).Str("user_id", userID).Msg("Participant left whiteboard.")

	if empty {
		e.submitSnapshot(room, final)
	}

	return true
}

// LeaveAll removes the user from every whiteboard room they belong to and
// returns the canonical keys of the rooms left. Used both for the explicit
// leave intent without a target board and for disconnect cleanup.
func (e *Engine) LeaveAll(userID string) []string {
	e.mu.RLock()
	candidates := make([]string, 0, len(e.rooms))
	for room, br := range e.rooms {
		br.mu.Lock()
		_, ok := br.participants[userID]
		br.mu.Unlock()
		if ok {
			candidates = append(candidates, room)
		}
	}
	e.mu.RUnlock()

	left := make([]string, 0, len(candidates))
	for _, room := range candidates {
		if e.LeaveRoom(room, userID) {
			left = append(left, room)
		}
	}
	return left
}

// MoveCursor updates the participant's stored cursor, marks the participant
// active, and broadcasts the position to the other room members. The sender
// never receives its own cursor event: the exclusion uses the transport id of
// the connection that sent the move, not the stored one, which can lag behind
// a duplicate-session eviction until an explicit rejoin. The stored id is
// refreshed here. Cursor data is ephemeral presence: it is never persisted.
func (e *Engine) MoveCursor(roomID string, userID string, transportID string, pos Position) {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return
	}

	br.mu.Lock()

	p, ok := br.participants[userID]
	if !ok {
		br.mu.Unlock()
		return
	}

	p.Cursor = &Position{X: pos.X, Y: pos.Y}
	p.Active = true
	if transportID == "" {
		transportID = p.transportID
	} else {
		p.transportID = transportID
	}

	br.mu.Unlock()

	e.bc.ToRoomExceptSender(room, transportID, EventCursorMoved, CursorPayload{RoomID: room, UserID: userID, Position: pos})
}

// AddElement appends an element to the room's ordered list and broadcasts it
// to ALL members, the originator included: the echo lets the origin client
// reconcile optimistic local state against the server-confirmed element.
func (e *Engine) AddElement(roomID string, authorID string, el Element) Element {
	room := NormalizeRoom(roomID)
	br := e.getOrCreateRoom(room)

	now := time.Now().UTC()
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	el.AuthorID = authorID
	el.CreatedAt = now
	el.UpdatedAt = now

	br.mu.Lock()
	br.elements = append(br.elements, el)
	snap := br.elementsLocked()
	br.mu.Unlock()

	e.bc.ToRoom(room, EventElementAdded, ElementPayload{RoomID: room, Element: el})
	e.submitSnapshot(room, snap)

	return el
}

// UpdateElement replaces an element in place, preserving its position in the
// ordered list, and broadcasts the result to all members. An update for an id
// that no longer exists is silently dropped: the element may have been cleared
// concurrently, and surfacing an error would help no one.
func (e *Engine) UpdateElement(roomID string, el Element) {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return
	}

	br.mu.Lock()

	idx := -1
	for i := range br.elements {
		if br.elements[i].ID == el.ID {
			idx = i
			break
		}
	}

	if idx < 0 {
		br.mu.Unlock()
		e.logger.Debug().Str("room", room).Str("element_id", el.ID).Msg("Update for unknown element dropped.")
		return
	}

	prev := br.elements[idx]
	el.AuthorID = prev.AuthorID
	el.CreatedAt = prev.CreatedAt
	el.UpdatedAt = time.Now().UTC()
	br.elements[idx] = el

	updated := el
	snap := br.elementsLocked()

	br.mu.Unlock()

	e.bc.ToRoom(room, EventElementUpdated, ElementPayload{RoomID: room, Element: updated})
	e.submitSnapshot(room, snap)
}

// DeleteElement removes an element by id if present and broadcasts the id to
// all members. Deleting an unknown or already-deleted id leaves state
// unchanged and surfaces no error.
func (e *Engine) DeleteElement(roomID string, elementID string) {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return
	}

	br.mu.Lock()

	idx := -1
	for i := range br.elements {
		if br.elements[i].ID == elementID {
			idx = i
			break
		}
	}

	if idx < 0 {
		br.mu.Unlock()
		return
	}

	br.elements = append(br.elements[:idx], br.elements[idx+1:]...)
	snap := br.elementsLocked()

	br.mu.Unlock()

	e.bc.ToRoom(room, EventElementDeleted, ElementRemovedPayload{RoomID: room, ElementID: elementID})
	e.submitSnapshot(room, snap)
}

// ClearRoom empties the element list and broadcasts a clear signal to all
// members. The participant roster is unaffected.
func (e *Engine) ClearRoom(roomID string) {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return
	}

	br.mu.Lock()
	br.elements = nil
	br.mu.Unlock()

	e.bc.ToRoom(room, EventBoardCleared, ClearedPayload{RoomID: room})
	e.submitSnapshot(room, nil)

	e.logger.Info().Str("room", room).Msg("Whiteboard cleared.")
}

// RoomState returns a copy of the room's current element list. ok is false if
// the board has no live state.
func (e *Engine) RoomState(roomID string) (Snapshot, bool) {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return Snapshot{}, false
	}

	br.mu.Lock()
	defer br.mu.Unlock()

	return Snapshot{
		RoomID:   room,
		Elements: br.elementsLocked(),
		TakenAt:  time.Now().UTC(),
	}, true
}

// Participants returns a copy of the room's current roster.
func (e *Engine) Participants(roomID string) []Participant {
	room := NormalizeRoom(roomID)
	br := e.getRoom(room)
	if br == nil {
		return nil
	}

	br.mu.Lock()
	defer br.mu.Unlock()

	return br.rosterLocked("")
}

// submitSnapshot hands the element state to the archiver without waiting on it.
func (e *Engine) submitSnapshot(room string, elements []Element) {
	if e.archiver == nil {
		return
	}

	e.archiver.SubmitSnapshot(Snapshot{
		RoomID:   room,
		Elements: elements,
		TakenAt:  time.Now().UTC(),
	})
}

// rosterLocked copies the participant roster, excluding excludeUserID when
// non-empty. Callers must hold the room mutex.
func (r *boardRoom) rosterLocked(excludeUserID string) []Participant {
	roster := make([]Participant, 0, len(r.participants))
	for id, p := range r.participants {
		if excludeUserID != "" && id == excludeUserID {
			continue
		}
		roster = append(roster, *p)
	}
	return roster
}

// elementsLocked copies the element list. Callers must hold the room mutex.
func (r *boardRoom) elementsLocked() []Element {
	out := make([]Element, len(r.elements))
	copy(out, r.elements)
	return out
}
