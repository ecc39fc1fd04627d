/*
Package store is the persistence collaborator of the realtime core. It durably
saves chat messages and whiteboard snapshots and answers authorization checks
("does user X have access to resource Y") against the platform's relational
store. The realtime layer treats all writes as best effort: they run on the
outbox worker, never on the broadcast path.
*/
package store

import (
	"context"
	"time"

	"eventlive/internal/app/whiteboard"
)

// ChatMessage is the durable record of one group or private chat message.
type ChatMessage struct {
	ID             string
	Room           string
	EventID        string
	ConversationID string
	SenderID       string
	Content        string
	SentAt         time.Time
}

// Store is the persistence interface the realtime core consumes.
type Store interface {
	// SaveChatMessage durably appends a chat message.
	SaveChatMessage(ctx context.Context, msg ChatMessage) error

	// SaveSnapshot upserts the latest whiteboard snapshot for a room.
	SaveSnapshot(ctx context.Context, snap whiteboard.Snapshot) error

	// LoadSnapshot returns the persisted snapshot for a room, if any.
	LoadSnapshot(ctx context.Context, roomID string) (*whiteboard.Snapshot, error)

	// CanAccessEvent reports whether the user is a member of the event.
	CanAccessEvent(ctx context.Context, userID string, eventID string) (bool, error)

	// CanAccessConversation reports whether the user is a party to the
	// private conversation.
	CanAccessConversation(ctx context.Context, userID string, conversationID string) (bool, error)
}
