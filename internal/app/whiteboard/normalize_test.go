package whiteboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "42", "whiteboard:42"},
		{"event alias", "event-42", "whiteboard:42"},
		{"canonical key", "whiteboard:42", "whiteboard:42"},
		{"canonical key wrapping alias", "whiteboard:event-42", "whiteboard:42"},
		{"surrounding whitespace", "  event-42  ", "whiteboard:42"},
		{"uuid id", "3f1c2b", "whiteboard:3f1c2b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRoom(tt.input))
		})
	}
}

func TestNormalizeRoom_AllFormsConverge(t *testing.T) {
	forms := []string{"42", "event-42", "whiteboard:42", "whiteboard:event-42"}
	for _, form := range forms {
		assert.Equal(t, "whiteboard:42", NormalizeRoom(form), "form %q", form)
	}
}

func TestBareID(t *testing.T) {
	assert.Equal(t, "42", BareID("whiteboard:42"))
	assert.Equal(t, "42", BareID("42"))
}

func TestIsWhiteboardRoom(t *testing.T) {
	assert.True(t, IsWhiteboardRoom("whiteboard:42"))
	assert.False(t, IsWhiteboardRoom("chat:42"))
	assert.False(t, IsWhiteboardRoom("event:42"))
}
