package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound_KnownEvents(t *testing.T) {
	tests := []struct {
		event string
		raw   string
		check func(t *testing.T, payload any)
	}{
		{
			event: EventJoinWhiteboard,
			raw:   `{"eventId":"42","user":{"id":"alice","name":"Alice"}}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*JoinWhiteboardPayload)
				assert.Equal(t, "42", p.EventID)
				assert.Equal(t, "alice", p.User.ID)
			},
		},
		{
			event: EventCursorMove,
			raw:   `{"roomId":"whiteboard:42","position":{"x":10,"y":20}}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*CursorMovePayload)
				assert.Equal(t, 10.0, p.Position.X)
				assert.Equal(t, 20.0, p.Position.Y)
			},
		},
		{
			event: EventElementAdd,
			raw:   `{"roomId":"whiteboard:42","element":{"id":"el-1","type":"rect","data":{"w":5}}}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*ElementAddPayload)
				assert.Equal(t, "el-1", p.Element.ID)
				assert.Equal(t, "rect", p.Element.Type)
			},
		},
		{
			event: EventChatMessage,
			raw:   `{"eventId":"42","content":"hello"}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*ChatMessagePayload)
				assert.Equal(t, "hello", p.Content)
			},
		},
		{
			event: EventPrivateTyping,
			raw:   `{"conversationId":"c-7","typing":true}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*PrivateTypingPayload)
				assert.True(t, p.Typing)
			},
		},
		{
			event: EventPollVote,
			raw:   `{"pollId":"p-1","optionId":"o-2","voteCount":3,"totalVotes":10}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*PollVotePayload)
				assert.Equal(t, 10, p.TotalVotes)
			},
		},
		{
			event: EventEventCheckin,
			raw:   `{"eventId":"42","attendeeId":"alice","attendeeName":"Alice"}`,
			check: func(t *testing.T, payload any) {
				p := payload.(*EventCheckinPayload)
				assert.Equal(t, "Alice", p.AttendeeName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			payload, err := DecodeInbound(tt.event, json.RawMessage(tt.raw))
			require.Nil(t, err)
			tt.check(t, payload)
		})
	}
}

func TestDecodeInbound_UnknownEventRejected(t *testing.T) {
	_, err := DecodeInbound("admin:shutdown", json.RawMessage(`{}`))
	require.NotNil(t, err)

	_, err = DecodeInbound("", json.RawMessage(`{}`))
	require.NotNil(t, err)
}

func TestDecodeInbound_UnknownFieldsRejected(t *testing.T) {
	_, err := DecodeInbound(EventChatMessage, json.RawMessage(`{"eventId":"42","content":"hi","injected":"x"}`))
	require.NotNil(t, err)
}

func TestDecodeInbound_MalformedPayloadRejected(t *testing.T) {
	_, err := DecodeInbound(EventCursorMove, json.RawMessage(`{"roomId":42}`))
	require.NotNil(t, err)

	_, err = DecodeInbound(EventChatMessage, json.RawMessage(`not json`))
	require.NotNil(t, err)
}

func TestDecodeInbound_EmptyPayloadAllowed(t *testing.T) {
	// leave-whiteboard with no payload means leave every board.
	payload, err := DecodeInbound(EventLeaveWhiteboard, nil)
	require.Nil(t, err)

	p := payload.(*LeaveWhiteboardPayload)
	assert.Empty(t, p.WhiteboardID)
}
