package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventlive/internal/app/store"
	"eventlive/internal/app/whiteboard"
	"eventlive/internal/pkg/errs"
	"eventlive/internal/pkg/logx"
)

const (
	// sweepInterval is how often the hub checks for registry entries whose
	// transport died without a close event reaching cleanup.
	sweepInterval = 30 * time.Second

	// authzTimeout bounds one authorization lookup on the event path.
	authzTimeout = 3 * time.Second
)

// Hub owns the realtime core: connection registry, per-user connection
// limiter, room membership, broadcast router, gateway facade, and the
// whiteboard engine. All inbound transport events funnel through
// HandleMessage; a failure processing one user's event never affects other
// sessions.
type Hub struct {
	registry    *Registry
	limiter     *ConnLimiter
	rooms       *Rooms
	broadcaster *Broadcaster
	gateway     *Gateway
	board       *whiteboard.Engine

	store  store.Store
	outbox *store.Outbox

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewHub wires the core together and starts the dead-connection sweep.
// outbox may be nil, in which case nothing is persisted.
func NewHub(st store.Store, outbox *store.Outbox) *Hub {
	registry := NewRegistry()
	rooms := NewRooms()
	broadcaster := NewBroadcaster(registry, rooms)

	var archiver whiteboard.Archiver
	if outbox != nil {
		archiver = outbox
	}

	h := &Hub{
		registry:    registry,
		limiter:     NewConnLimiter(),
		rooms:       rooms,
		broadcaster: broadcaster,
		gateway:     NewGateway(registry, broadcaster),
		board:       whiteboard.NewEngine(broadcaster, archiver),
		store:       st,
		outbox:      outbox,
		stopCh:      make(chan struct{}),
		logger:      logx.Logger().With().Str("component", "hub").Logger(),
	}

	h.wg.Add(1)
	go h.runSweepLoop()

	return h
}

// Gateway returns the facade external services use to push notifications.
func (h *Hub) Gateway() *Gateway {
	return h.gateway
}

// Board returns the whiteboard engine, used by the REST state endpoint.
func (h *Hub) Board() *whiteboard.Engine {
	return h.board
}

// ConnectionCount returns the number of live connections, for health reporting.
func (h *Hub) ConnectionCount() int {
	return h.registry.Count()
}

// Admit applies the per-user fixed-window connection limit. A false return is
// fatal for the connection attempt; the caller closes it silently.
func (h *Hub) Admit(userID string, now time.Time) bool {
	return h.limiter.Admit(userID, now)
}

// Register records the transport as its user's canonical connection, evicting
// any older connection for the same user.
func (h *Hub) Register(t Transport) {
	h.registry.Register(t)
}

// Disconnect runs full cleanup for a closing transport: registry removal
// (skipped for stale, already-evicted transports), membership removal from
// every room, whiteboard departure broadcasts, and the offline broadcast.
func (h *Hub) Disconnect(t Transport) {
	if !h.registry.Deregister(t) {
		return
	}

	userID := t.User().ID

	left := h.rooms.LeaveAll(userID)
	for _, room := range left {
		if whiteboard.IsWhiteboardRoom(room) {
			h.board.LeaveRoom(room, userID)
		}
	}

	h.broadcaster.ToAll(EventUserOffline, PresenceOfflinePayload{UserID: userID})

	h.logger.Info().
		Str("user_id", userID).
		Int("rooms_left", len(left)).
		Msg("Connection cleanup complete.")
}

// Shutdown stops the sweep loop and closes every live connection.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	h.wg.Wait()

	for _, t := range h.registry.Transports() {
		if err := t.Close(); err != nil {
			h.logger.Warn().Err(err).Str("user_id", t.User().ID).Msg("Error closing connection during shutdown.")
		}
	}

	h.logger.Info().Msg("Hub shutdown complete.")
}

// runSweepLoop periodically evicts registry entries whose transport reports
// disconnected but whose cleanup event was missed, re-synchronizing room
// rosters, and prunes elapsed rate-limit windows.
func (h *Hub) runSweepLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, t := range h.registry.Transports() {
				if !t.Alive() {
					h.logger.Warn().
						Str("user_id", t.User().ID).
						Str("transport", t.ID()).
						Msg("Sweep found dead connection. Forcing cleanup.")
					h.Disconnect(t)
				}
			}
			h.limiter.Prune(time.Now())

		case <-h.stopCh:
			return
		}
	}
}

// HandleMessage decodes and dispatches one inbound transport frame. All
// failures are handled locally: malformed frames are dropped after logging,
// and a panic in a handler is contained to this one event.
func (h *Hub) HandleMessage(t Transport, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Interface("panic", r).
				Str("user_id", t.User().ID).
				Msg("Recovered from panic while processing event.")
		}
	}()

	var env struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn().Err(err).
			Str("user_id", t.User().ID).
			Msg("Client sent invalid JSON frame.")
		return
	}

	payload, decodeErr := DecodeInbound(env.Event, env.Payload)
	if decodeErr != nil {
		h.logger.Warn().
			Str("user_id", t.User().ID).
			Str("event", env.Event).
			Msg("Client sent unsupported event or malformed payload.")
		return
	}

	switch p := payload.(type) {
	case *JoinWhiteboardPayload:
		h.handleJoinWhiteboard(t, p)
	case *LeaveWhiteboardPayload:
		h.handleLeaveWhiteboard(t, p)
	case *CursorMovePayload:
		h.board.MoveCursor(p.RoomID, t.User().ID, t.ID(), p.Position)
	case *ElementAddPayload:
		h.board.AddElement(p.RoomID, t.User().ID, p.Element)
	case *ElementUpdatePayload:
		h.board.UpdateElement(p.RoomID, p.Element)
	case *ElementDeletePayload:
		h.board.DeleteElement(p.RoomID, p.ElementID)
	case *WhiteboardClearPayload:
		h.board.ClearRoom(p.RoomID)
	case *ChatJoinPayload:
		h.handleChatMembership(t, env.Event, p.EventID)
	case *ChatMessagePayload:
		h.handleChatMessage(t, p)
	case *ChatTypingPayload:
		h.handleTyping(t, ChatRoomPrefix+p.EventID, EventChatUserTyping, p.Typing)
	case *PrivateJoinPayload:
		h.handlePrivateMembership(t, env.Event, p.ConversationID)
	case *PrivateMessagePayload:
		h.handlePrivateMessage(t, p)
	case *PrivateTypingPayload:
		h.handleTyping(t, PrivateRoomPrefix+p.ConversationID, EventPrivateTypingTo, p.Typing)
	case *PollJoinPayload:
		h.rooms.Join(t.User().ID, PollRoomPrefix+p.PollID)
	case *PollVotePayload:
		h.broadcaster.ToRoom(PollRoomPrefix+p.PollID, EventPollVoteUpdate, p)
	case *TaskUpdatePayload:
		h.handleTaskUpdate(t, p)
	case *EventJoinPayload:
		h.handleEventJoin(t, p)
	case *EventCheckinPayload:
		h.broadcaster.ToRoom(EventRoomPrefix+p.EventID, EventCheckinResult, p)
	}
}

// handleJoinWhiteboard admits the user to a whiteboard room after checking
// access to the backing event. The join payload may carry fresher display
// data (name, avatar) than the token claims; identity always comes from the
// authenticated connection.
func (h *Hub) handleJoinWhiteboard(t Transport, p *JoinWhiteboardPayload) {
	target := p.WhiteboardID
	if target == "" {
		target = p.EventID
	}
	if target == "" {
		return
	}

	room := whiteboard.NormalizeRoom(target)

	if !h.authorizeEvent(t, whiteboard.BareID(room)) {
		return
	}

	u := t.User()
	if p.User.Name != "" {
		u.Name = p.User.Name
	}
	if p.User.Avatar != "" {
		u.Avatar = p.User.Avatar
	}

	h.rooms.Join(u.ID, room)
	h.board.JoinRoom(room, u, t.ID())
}

// handleLeaveWhiteboard leaves one board, or every board the user is on when
// no target is given.
func (h *Hub) handleLeaveWhiteboard(t Transport, p *LeaveWhiteboardPayload) {
	userID := t.User().ID

	if p.WhiteboardID != "" {
		room := whiteboard.NormalizeRoom(p.WhiteboardID)
		h.board.LeaveRoom(room, userID)
		h.rooms.Leave(userID, room)
		return
	}

	for _, room := range h.board.LeaveAll(userID) {
		h.rooms.Leave(userID, room)
	}
}

// handleChatMembership covers chat:join and chat:leave.
func (h *Hub) handleChatMembership(t Transport, event string, eventID string) {
	if eventID == "" {
		return
	}

	room := ChatRoomPrefix + eventID

	if event == EventChatLeave {
		h.rooms.Leave(t.User().ID, room)
		return
	}

	if !h.authorizeEvent(t, eventID) {
		return
	}
	h.rooms.Join(t.User().ID, room)
}

// handlePrivateMembership covers private_chat:join and private_chat:leave.
func (h *Hub) handlePrivateMembership(t Transport, event string, conversationID string) {
	if conversationID == "" {
		return
	}

	room := PrivateRoomPrefix + conversationID

	if event == EventPrivateLeave {
		h.rooms.Leave(t.User().ID, room)
		return
	}

	if !h.authorizeConversation(t, conversationID) {
		return
	}
	h.rooms.Join(t.User().ID, room)
}

// handleChatMessage broadcasts a group chat message to the whole room, the
// sender included, and queues it for durable storage.
func (h *Hub) handleChatMessage(t Transport, p *ChatMessagePayload) {
	room := ChatRoomPrefix + p.EventID
	sender := t.User()

	if !h.rooms.IsMember(sender.ID, room) {
		h.logger.Warn().
			Str("user_id", sender.ID).
			Str("room", room).
			Msg("Dropping chat message from non-member.")
		return
	}

	now := time.Now().UTC()
	msg := ChatBroadcastPayload{
		ID:      uuid.NewString(),
		Room:    room,
		EventID: p.EventID,
		Sender:  sender,
		Content: p.Content,
		SentAt:  now.UnixMilli(),
	}

	h.broadcaster.ToRoom(room, EventChatNewMessage, msg)
	h.persistMessage(store.ChatMessage{
		ID:       msg.ID,
		Room:     room,
		EventID:  p.EventID,
		SenderID: sender.ID,
		Content:  p.Content,
		SentAt:   now,
	})
}

// handlePrivateMessage broadcasts a private conversation message.
func (h *Hub) handlePrivateMessage(t Transport, p *PrivateMessagePayload) {
	room := PrivateRoomPrefix + p.ConversationID
	sender := t.User()

	if !h.rooms.IsMember(sender.ID, room) {
		h.logger.Warn().
			Str("user_id", sender.ID).
			Str("room", room).
			Msg("Dropping private message from non-member.")
		return
	}

	now := time.Now().UTC()
	msg := ChatBroadcastPayload{
		ID:             uuid.NewString(),
		Room:           room,
		ConversationID: p.ConversationID,
		Sender:         sender,
		Content:        p.Content,
		SentAt:         now.UnixMilli(),
	}

	h.broadcaster.ToRoom(room, EventPrivateNewMsg, msg)
	h.persistMessage(store.ChatMessage{
		ID:             msg.ID,
		Room:           room,
		ConversationID: p.ConversationID,
		SenderID:       sender.ID,
		Content:        p.Content,
		SentAt:         now,
	})
}

// handleTyping relays a typing indicator to everyone in the room except the
// typist. Typing state is ephemeral; it is never persisted.
func (h *Hub) handleTyping(t Transport, room string, event string, typing bool) {
	if !h.rooms.IsMember(t.User().ID, room) {
		return
	}

	h.broadcaster.ToRoomExceptSender(room, t.ID(), event, TypingBroadcastPayload{
		Room:   room,
		Sender: t.User(),
		Typing: typing,
	})
}

// handleTaskUpdate fans a task status change out to the event room and pings
// the assignee directly when one is named.
func (h *Hub) handleTaskUpdate(t Transport, p *TaskUpdatePayload) {
	h.broadcaster.ToRoom(EventRoomPrefix+p.EventID, EventTaskStatus, p)

	if p.AssigneeID != "" && p.AssigneeID != t.User().ID {
		h.gateway.NotifyUser(p.AssigneeID, Notification{
			Type:  "task_update",
			Title: "A task assigned to you was updated.",
			Data: map[string]any{
				"taskId":  p.TaskID,
				"eventId": p.EventID,
				"status":  p.Status,
			},
		})
	}
}

// handleEventJoin admits the user to an event's live room after an access check.
func (h *Hub) handleEventJoin(t Transport, p *EventJoinPayload) {
	if p.EventID == "" {
		return
	}

	if !h.authorizeEvent(t, p.EventID) {
		return
	}
	h.rooms.Join(t.User().ID, EventRoomPrefix+p.EventID)
}

// authorizeEvent consults the persistence collaborator for event access. On
// denial (or a failed check, which denies) a scoped error event goes to the
// requesting transport only; the room is not joined.
func (h *Hub) authorizeEvent(t Transport, eventID string) bool {
	if h.store == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), authzTimeout)
	defer cancel()

	allowed, err := h.store.CanAccessEvent(ctx, t.User().ID, eventID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", t.User().ID).
			Str("event_id", eventID).
			Msg("Event access check failed. Denying.")
		allowed = false
	}

	if !allowed {
		h.sendScopedError(t, errs.NewError(errs.ErrAccessDenied))
	}
	return allowed
}

// authorizeConversation is the private-conversation analog of authorizeEvent.
func (h *Hub) authorizeConversation(t Transport, conversationID string) bool {
	if h.store == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), authzTimeout)
	defer cancel()

	allowed, err := h.store.CanAccessConversation(ctx, t.User().ID, conversationID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", t.User().ID).
			Str("conversation_id", conversationID).
			Msg("Conversation access check failed. Denying.")
		allowed = false
	}

	if !allowed {
		h.sendScopedError(t, errs.NewError(errs.ErrAccessDenied))
	}
	return allowed
}

func (h *Hub) sendScopedError(t Transport, customErr *errs.CustomError) {
	if err := t.Send(EventError, ErrorPayload{Code: customErr.Code, Message: customErr.Message}); err != nil {
		h.logger.Warn().Err(err).Str("user_id", t.User().ID).Msg("Failed to deliver scoped error event.")
	}
}

func (h *Hub) persistMessage(msg store.ChatMessage) {
	if h.outbox == nil {
		return
	}
	h.outbox.SubmitChatMessage(msg)
}
