package realtime

import (
	"bytes"
	"encoding/json"

	"eventlive/internal/app/user"
	"eventlive/internal/app/whiteboard"
	"eventlive/internal/pkg/errs"
)

// Inbound event names. The set is closed: anything else is rejected at the
// boundary before reaching a handler.
const (
	EventJoinWhiteboard  = "join-whiteboard"
	EventLeaveWhiteboard = "leave-whiteboard"
	EventCursorMove      = "cursor-move"
	EventElementAdd      = "element-add"
	EventElementUpdate   = "element-update"
	EventElementDelete   = "element-delete"
	EventWhiteboardClear = "whiteboard-clear"

	EventChatJoin    = "chat:join"
	EventChatLeave   = "chat:leave"
	EventChatMessage = "chat:message"
	EventChatTyping  = "chat:typing"

	EventPrivateJoin    = "private_chat:join"
	EventPrivateLeave   = "private_chat:leave"
	EventPrivateMessage = "private_chat:message"
	EventPrivateTyping  = "private_chat:typing"

	EventPollJoin = "poll:join"
	EventPollVote = "poll:vote"

	EventTaskUpdate = "task:update"

	EventEventJoin    = "event:join"
	EventEventCheckin = "event:checkin"
)

// Outbound event names not already defined by the whiteboard engine.
const (
	EventChatNewMessage  = "chat:new_message"
	EventChatUserTyping  = "chat:user_typing"
	EventPrivateNewMsg   = "private_chat:new_message"
	EventPrivateTypingTo = "private_chat:user_typing"
	EventPollVoteUpdate  = "poll:vote_update"
	EventTaskStatus      = "task:status_changed"
	EventCheckinResult   = "event:attendee_checked_in"
	EventNotificationNew = "notification:new"
	EventUserOffline     = "user-offline"
	EventAuthError       = "auth_error"
	EventError           = "error"
)

// JoinWhiteboardPayload addresses a board either by its own id or by the
// backing event id; the engine normalizes both forms to one canonical room.
type JoinWhiteboardPayload struct {
	EventID      string    `json:"eventId"`
	WhiteboardID string    `json:"whiteboardId,omitempty"`
	User         user.User `json:"user"`
}

// LeaveWhiteboardPayload with an empty WhiteboardID means leave every
// whiteboard room the user currently belongs to.
type LeaveWhiteboardPayload struct {
	WhiteboardID string `json:"whiteboardId,omitempty"`
}

type CursorMovePayload struct {
	RoomID   string              `json:"roomId"`
	Position whiteboard.Position `json:"position"`
}

type ElementAddPayload struct {
	RoomID  string             `json:"roomId"`
	Element whiteboard.Element `json:"element"`
}

type ElementUpdatePayload struct {
	RoomID  string             `json:"roomId"`
	Element whiteboard.Element `json:"element"`
}

type ElementDeletePayload struct {
	RoomID    string `json:"roomId"`
	ElementID string `json:"elementId"`
}

type WhiteboardClearPayload struct {
	RoomID string `json:"roomId"`
}

type ChatJoinPayload struct {
	EventID string `json:"eventId"`
}

type ChatMessagePayload struct {
	EventID string `json:"eventId"`
	Content string `json:"content"`
}

type ChatTypingPayload struct {
	EventID string `json:"eventId"`
	Typing  bool   `json:"typing"`
}

type PrivateJoinPayload struct {
	ConversationID string `json:"conversationId"`
}

type PrivateMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

type PrivateTypingPayload struct {
	ConversationID string `json:"conversationId"`
	Typing         bool   `json:"typing"`
}

type PollJoinPayload struct {
	PollID string `json:"pollId"`
}

type PollVotePayload struct {
	PollID     string `json:"pollId"`
	OptionID   string `json:"optionId"`
	VoteCount  int    `json:"voteCount"`
	TotalVotes int    `json:"totalVotes"`
}

type TaskUpdatePayload struct {
	TaskID     string `json:"taskId"`
	EventID    string `json:"eventId"`
	Status     string `json:"status"`
	AssigneeID string `json:"assigneeId,omitempty"`
}

type EventJoinPayload struct {
	EventID string `json:"eventId"`
}

type EventCheckinPayload struct {
	EventID      string `json:"eventId"`
	AttendeeID   string `json:"attendeeId"`
	AttendeeName string `json:"attendeeName"`
}

// ChatBroadcastPayload is the outbound shape for group and private messages.
type ChatBroadcastPayload struct {
	ID             string    `json:"id"`
	Room           string    `json:"room"`
	EventID        string    `json:"eventId,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	Sender         user.User `json:"sender"`
	Content        string    `json:"content"`
	SentAt         int64     `json:"sentAt"`
}

// TypingBroadcastPayload is the outbound shape for typing indicators.
type TypingBroadcastPayload struct {
	Room   string    `json:"room"`
	Sender user.User `json:"sender"`
	Typing bool      `json:"typing"`
}

// PresenceOfflinePayload announces a user going offline to all connections.
type PresenceOfflinePayload struct {
	UserID string `json:"userId"`
}

// ErrorPayload is the scoped error event sent to a single transport.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AuthErrorPayload is the connect-time authentication failure event.
type AuthErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// DecodeInbound validates and decodes the payload of an inbound event into
// its typed form. Unknown event names and payloads that do not match the
// declared shape are rejected here, at the boundary, so malformed client
// messages never reach deep handler logic.
func DecodeInbound(event string, raw json.RawMessage) (any, *errs.CustomError) {
	var dst any

	switch event {
	case EventJoinWhiteboard:
		dst = &JoinWhiteboardPayload{}
	case EventLeaveWhiteboard:
		dst = &LeaveWhiteboardPayload{}
	case EventCursorMove:
		dst = &CursorMovePayload{}
	case EventElementAdd:
		dst = &ElementAddPayload{}
	case EventElementUpdate:
		dst = &ElementUpdatePayload{}
	case EventElementDelete:
		dst = &ElementDeletePayload{}
	case EventWhiteboardClear:
		dst = &WhiteboardClearPayload{}
	case EventChatJoin, EventChatLeave:
		dst = &ChatJoinPayload{}
	case EventChatMessage:
		dst = &ChatMessagePayload{}
	case EventChatTyping:
		dst = &ChatTypingPayload{}
	case EventPrivateJoin, EventPrivateLeave:
		dst = &PrivateJoinPayload{}
	case EventPrivateMessage:
		dst = &PrivateMessagePayload{}
	case EventPrivateTyping:
		dst = &PrivateTypingPayload{}
	case EventPollJoin:
		dst = &PollJoinPayload{}
	case EventPollVote:
		dst = &PollVotePayload{}
	case EventTaskUpdate:
		dst = &TaskUpdatePayload{}
	case EventEventJoin:
		dst = &EventJoinPayload{}
	case EventEventCheckin:
		dst = &EventCheckinPayload{}
	default:
		return nil, errs.NewError(errs.ErrPayloadInvalid)
	}

	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return nil, errs.NewError(errs.ErrPayloadInvalid)
	}

	return dst, nil
}
