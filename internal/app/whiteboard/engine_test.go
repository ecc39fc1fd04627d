package whiteboard

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlive/internal/app/user"
)

type broadcastCall struct {
	method  string
	room    string
	exclude string
	userID  string
	event   string
	payload any
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (m *mockBroadcaster) ToRoom(room string, event string, payload any) {
	m.record(broadcastCall{method: "ToRoom", room: room, event: event, payload: payload})
}

func (m *mockBroadcaster) ToRoomExceptSender(room string, senderTransportID string, event string, payload any) {
	m.record(broadcastCall{method: "ToRoomExceptSender", room: room, exclude: senderTransportID, event: event, payload: payload})
}

func (m *mockBroadcaster) ToUser(userID string, event string, payload any) {
	m.record(broadcastCall{method: "ToUser", userID: userID, event: event, payload: payload})
}

func (m *mockBroadcaster) record(c broadcastCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockBroadcaster) getCalls() []broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]broadcastCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockBroadcaster) callsFor(event string) []broadcastCall {
	var out []broadcastCall
	for _, c := range m.getCalls() {
		if c.event == event {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockBroadcaster) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

type mockArchiver struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (m *mockArchiver) SubmitSnapshot(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
}

func (m *mockArchiver) getSnapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

func alice() user.User {
	return user.User{ID: "alice", Name: "Alice", Email: "alice@example.com"}
}

func bob() user.User {
	return user.User{ID: "bob", Name: "Bob", Email: "bob@example.com"}
}

func TestEngine_JoinRoom_Fresh(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	room, rejoin := e.JoinRoom("42", alice(), "t-alice-1")

	assert.Equal(t, "whiteboard:42", room)
	assert.False(t, rejoin)

	// The joiner receives the roster (empty, excluding self) and the element
	// backlog (empty), everyone else receives the joined announcement.
	roster := bc.callsFor(EventCurrentUsers)
	require.Len(t, roster, 1)
	assert.Equal(t, "ToUser", roster[0].method)
	assert.Equal(t, "alice", roster[0].userID)
	assert.Empty(t, roster[0].payload.(RosterPayload).Participants)

	state := bc.callsFor(EventBoardState)
	require.Len(t, state, 1)
	assert.Equal(t, "alice", state[0].userID)
	assert.Empty(t, state[0].payload.(StatePayload).Elements)

	joined := bc.callsFor(EventUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "ToRoomExceptSender", joined[0].method)
	assert.Equal(t, "t-alice-1", joined[0].exclude)

	p := joined[0].payload.(PresencePayload).Participant
	assert.Equal(t, "alice", p.User.ID)
	assert.Equal(t, ColorFor("alice"), p.Color)
	assert.True(t, p.Active)
}

func TestEngine_JoinRoom_SecondUserSeesRosterAndBacklog(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-alice-1")
	e.AddElement("42", "alice", Element{Type: "rect", Data: json.RawMessage(`{"w":10}`)})
	bc.reset()

	_, rejoin := e.JoinRoom("whiteboard:42", bob(), "t-bob-1")
	assert.False(t, rejoin)

	roster := bc.callsFor(EventCurrentUsers)
	require.Len(t, roster, 1)
	assert.Equal(t, "bob", roster[0].userID)

	participants := roster[0].payload.(RosterPayload).Participants
	require.Len(t, participants, 1)
	assert.Equal(t, "alice", participants[0].User.ID)

	state := bc.callsFor(EventBoardState)
	require.Len(t, state, 1)
	require.Len(t, state[0].payload.(StatePayload).Elements, 1)
	assert.Equal(t, "rect", state[0].payload.(StatePayload).Elements[0].Type)
}

func TestEngine_JoinRoom_RejoinUpdatesTransportInPlace(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-alice-1")
	e.JoinRoom("42", bob(), "t-bob-1")
	bc.reset()

	_, rejoin := e.JoinRoom("42", alice(), "t-alice-2")
	assert.True(t, rejoin)

	// No duplicate joined announcement and no duplicate participant record.
	assert.Empty(t, bc.callsFor(EventUserJoined))
	assert.Len(t, e.Participants("42"), 2)

	// The rejoining user still gets the roster and backlog resent.
	assert.Len(t, bc.callsFor(EventCurrentUsers), 1)
	assert.Len(t, bc.callsFor(EventBoardState), 1)

	for _, p := range e.Participants("42") {
		if p.User.ID == "alice" {
			assert.Equal(t, "t-alice-2", p.TransportID())
		}
	}
}

func TestEngine_ColorStableAcrossLeaveRejoin(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-1")
	first := e.Participants("42")[0].Color

	e.LeaveRoom("42", "alice")
	e.JoinRoom("42", alice(), "t-2")

	assert.Equal(t, first, e.Participants("42")[0].Color)
}

func TestEngine_LeaveRoom(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-alice-1")
	e.JoinRoom("42", bob(), "t-bob-1")
	bc.reset()

	assert.True(t, e.LeaveRoom("42", "alice"))

	left := bc.callsFor(EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "t-alice-1", left[0].exclude)
	assert.Equal(t, "alice", left[0].payload.(DeparturePayload).UserID)

	assert.Len(t, e.Participants("42"), 1)

	// Leaving again, or leaving as a non-participant, changes nothing.
	assert.False(t, e.LeaveRoom("42", "alice"))
	assert.False(t, e.LeaveRoom("42", "nobody"))
	assert.False(t, e.LeaveRoom("no-such-room", "alice"))
}

func TestEngine_LeaveRoom_LastOutSubmitsFinalSnapshot(t *testing.T) {
	bc := &mockBroadcaster{}
	ar := &mockArchiver{}
	e := NewEngine(bc, ar)

	e.JoinRoom("42", alice(), "t-1")
	e.AddElement("42", "alice", Element{Type: "line"})
	before := len(ar.getSnapshots())

	e.LeaveRoom("42", "alice")

	snaps := ar.getSnapshots()
	require.Len(t, snaps, before+1)
	final := snaps[len(snaps)-1]
	assert.Equal(t, "whiteboard:42", final.RoomID)
	assert.Len(t, final.Elements, 1)
}

func TestEngine_LeaveAll(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-1")
	e.JoinRoom("43", alice(), "t-1")
	e.JoinRoom("43", bob(), "t-2")

	left := e.LeaveAll("alice")

	assert.ElementsMatch(t, []string{"whiteboard:42", "whiteboard:43"}, left)
	assert.Empty(t, e.Participants("42"))
	assert.Len(t, e.Participants("43"), 1)

	assert.Empty(t, e.LeaveAll("alice"))
}

func TestEngine_MoveCursor(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-alice-1")
	bc.reset()

	e.MoveCursor("42", "alice", "t-alice-1", Position{X: 10, Y: 20})

	moved := bc.callsFor(EventCursorMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, "ToRoomExceptSender", moved[0].method)
	assert.Equal(t, "t-alice-1", moved[0].exclude)
	assert.Equal(t, Position{X: 10, Y: 20}, moved[0].payload.(CursorPayload).Position)

	// Stored on the participant record for roster snapshots.
	p := e.Participants("42")[0]
	require.NotNil(t, p.Cursor)
	assert.Equal(t, 10.0, p.Cursor.X)

	// Non-participant and unknown room are silent no-ops.
	bc.reset()
	e.MoveCursor("42", "nobody", "t-x", Position{X: 1, Y: 1})
	e.MoveCursor("no-such-room", "alice", "t-alice-1", Position{X: 1, Y: 1})
	assert.Empty(t, bc.getCalls())
}

func TestEngine_MoveCursor_ExcludesLiveTransportNotStored(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	// The participant record still holds the old transport after a session
	// replacement that happened without an explicit rejoin.
	e.JoinRoom("42", alice(), "t-1")
	bc.reset()

	e.MoveCursor("42", "alice", "t-2", Position{X: 3, Y: 4})

	moved := bc.callsFor(EventCursorMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, "t-2", moved[0].exclude)

	// The stored transport id is refreshed by the move.
	for _, p := range e.Participants("42") {
		assert.Equal(t, "t-2", p.TransportID())
	}
}

func TestEngine_AddElement(t *testing.T) {
	bc := &mockBroadcaster{}
	ar := &mockArchiver{}
	e := NewEngine(bc, ar)

	e.JoinRoom("42", alice(), "t-1")
	bc.reset()

	el := e.AddElement("42", "alice", Element{Type: "rect", Data: json.RawMessage(`{"w":5}`)})

	assert.NotEmpty(t, el.ID)
	assert.Equal(t, "alice", el.AuthorID)
	assert.False(t, el.CreatedAt.IsZero())
	assert.Equal(t, el.CreatedAt, el.UpdatedAt)

	// The add is echoed to everyone, the originator included.
	added := bc.callsFor(EventElementAdded)
	require.Len(t, added, 1)
	assert.Equal(t, "ToRoom", added[0].method)
	assert.Equal(t, el.ID, added[0].payload.(ElementPayload).Element.ID)

	require.Len(t, ar.getSnapshots(), 1)
}

func TestEngine_AddElement_HonorsClientID(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	el := e.AddElement("42", "alice", Element{ID: "client-el-1", Type: "text"})
	assert.Equal(t, "client-el-1", el.ID)
}

func TestEngine_UpdateElement_PreservesOrderAndProvenance(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	a := e.AddElement("42", "alice", Element{ID: "el-a", Type: "rect", Data: json.RawMessage(`{"w":1}`)})
	e.AddElement("42", "bob", Element{ID: "el-b", Type: "line"})
	bc.reset()

	e.UpdateElement("42", Element{ID: "el-a", Type: "rect", Data: json.RawMessage(`{"w":99}`)})

	snap, ok := e.RoomState("42")
	require.True(t, ok)
	require.Len(t, snap.Elements, 2)

	// Updated element keeps its slot, author, and creation time.
	assert.Equal(t, "el-a", snap.Elements[0].ID)
	assert.Equal(t, "el-b", snap.Elements[1].ID)
	assert.JSONEq(t, `{"w":99}`, string(snap.Elements[0].Data))
	assert.Equal(t, "alice", snap.Elements[0].AuthorID)
	assert.Equal(t, a.CreatedAt, snap.Elements[0].CreatedAt)

	updated := bc.callsFor(EventElementUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, "ToRoom", updated[0].method)
}

func TestEngine_UpdateElement_UnknownIDDropped(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.AddElement("42", "alice", Element{ID: "el-a", Type: "rect"})
	bc.reset()

	e.UpdateElement("42", Element{ID: "no-such-element", Type: "rect"})
	e.UpdateElement("no-such-room", Element{ID: "el-a"})

	assert.Empty(t, bc.getCalls())
}

func TestEngine_DeleteElement_Idempotent(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.AddElement("42", "alice", Element{ID: "el-a", Type: "rect"})
	e.AddElement("42", "alice", Element{ID: "el-b", Type: "line"})
	bc.reset()

	e.DeleteElement("42", "el-a")

	deleted := bc.callsFor(EventElementDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "el-a", deleted[0].payload.(ElementRemovedPayload).ElementID)

	snap, _ := e.RoomState("42")
	require.Len(t, snap.Elements, 1)
	assert.Equal(t, "el-b", snap.Elements[0].ID)

	// The second delete is a silent no-op.
	bc.reset()
	e.DeleteElement("42", "el-a")
	assert.Empty(t, bc.getCalls())

	snap, _ = e.RoomState("42")
	assert.Len(t, snap.Elements, 1)
}

func TestEngine_ClearRoom(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("42", alice(), "t-1")
	e.AddElement("42", "alice", Element{Type: "rect"})
	e.AddElement("42", "alice", Element{Type: "line"})
	bc.reset()

	e.ClearRoom("42")

	cleared := bc.callsFor(EventBoardCleared)
	require.Len(t, cleared, 1)
	assert.Equal(t, "whiteboard:42", cleared[0].payload.(ClearedPayload).RoomID)

	snap, ok := e.RoomState("42")
	require.True(t, ok)
	assert.Empty(t, snap.Elements)

	// The roster survives a clear.
	assert.Len(t, e.Participants("42"), 1)
}

func TestEngine_RoomState_UnknownRoom(t *testing.T) {
	e := NewEngine(&mockBroadcaster{}, nil)

	_, ok := e.RoomState("no-such-room")
	assert.False(t, ok)
	assert.Nil(t, e.Participants("no-such-room"))
}

func TestEngine_DualAddressingSharesState(t *testing.T) {
	bc := &mockBroadcaster{}
	e := NewEngine(bc, nil)

	e.JoinRoom("event-42", alice(), "t-1")
	e.AddElement("whiteboard:42", "alice", Element{ID: "el-a", Type: "rect"})

	snap, ok := e.RoomState("42")
	require.True(t, ok)
	require.Len(t, snap.Elements, 1)
	assert.Equal(t, "whiteboard:42", snap.RoomID)
	assert.Len(t, e.Participants("whiteboard:event-42"), 1)
}
