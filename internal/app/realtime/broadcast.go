package realtime

import (
	"github.com/rs/zerolog"

	"eventlive/internal/pkg/logx"
)

// Broadcaster fans named events out to rooms, individual users, or every
// connection. It is a thin dispatch layer over the connection registry and
// the membership index; its only policy responsibility is include-sender vs
// exclude-sender, decided per call site: chat messages and element mutations
// include the sender, typing indicators and cursor moves exclude it.
type Broadcaster struct {
	registry *Registry
	rooms    *Rooms

	logger zerolog.Logger
}

// NewBroadcaster constructs the router over the given registry and index.
func NewBroadcaster(registry *Registry, rooms *Rooms) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		rooms:    rooms,
		logger:   logx.Logger().With().Str("component", "broadcast").Logger(),
	}
}

// ToRoom delivers the event to every member of the room, sender included.
func (b *Broadcaster) ToRoom(room string, event string, payload any) {
	b.fanOut(room, "", event, payload)
}

// ToRoomExceptSender delivers the event to every member of the room except
// the one connected through senderTransportID.
func (b *Broadcaster) ToRoomExceptSender(room string, senderTransportID string, event string, payload any) {
	b.fanOut(room, senderTransportID, event, payload)
}

// ToUser delivers the event to a single user's canonical connection.
// Broadcasting to an absent user is a silent no-op, not an error.
func (b *Broadcaster) ToUser(userID string, event string, payload any) {
	t, ok := b.registry.Get(userID)
	if !ok {
		return
	}
	b.send(t, event, payload)
}

// ToAll delivers the event to every live connection.
func (b *Broadcaster) ToAll(event string, payload any) {
	for _, t := range b.registry.Transports() {
		b.send(t, event, payload)
	}
}

// ToAllExcept delivers the event to every live connection except the one with
// the given transport id. Used for presence broadcasts about that connection.
func (b *Broadcaster) ToAllExcept(transportID string, event string, payload any) {
	for _, t := range b.registry.Transports() {
		if t.ID() == transportID {
			continue
		}
		b.send(t, event, payload)
	}
}

// fanOut resolves room membership through the registry and sends to each
// member, skipping the excluded transport when set. Events are handed to each
// transport in the order they were accepted; delivery to a member whose send
// queue is full is dropped and logged, never retried.
func (b *Broadcaster) fanOut(room string, excludeTransportID string, event string, payload any) {
	for _, userID := range b.rooms.Members(room) {
		t, ok := b.registry.Get(userID)
		if !ok {
			// Member without a live connection: membership cleanup is racing
			// a disconnect. Nothing to deliver.
			continue
		}
		if excludeTransportID != "" && t.ID() == excludeTransportID {
			continue
		}
		b.send(t, event, payload)
	}
}

func (b *Broadcaster) send(t Transport, event string, payload any) {
	if err := t.Send(event, payload); err != nil {
		b.logger.Warn().
			Err(err).
			Str("user_id", t.User().ID).
			Str("event", event).
			Msg("Dropping event for slow or closed connection.")
	}
}
