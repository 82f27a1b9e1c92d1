package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-shopflow-be/pkg/store"
)

func TestParseClientMessageAcceptsValidFrames(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"message","message":"laptop under $1000"}`))
	require.NoError(t, err)
	assert.Equal(t, ClientKindMessage, msg.Type)

	msg, err = ParseClientMessage([]byte(`{"type":"answer","message":"under $300"}`))
	require.NoError(t, err)
	assert.Equal(t, ClientKindAnswer, msg.Type)

	msg, err = ParseClientMessage([]byte(`{"type":"pong"}`))
	require.NoError(t, err)
	assert.Equal(t, ClientKindPong, msg.Type)

	msg, err = ParseClientMessage([]byte(`{"type":"message","media":[{"media_type":"image","key":"uploads/shoe.jpg"}]}`))
	require.NoError(t, err)
	require.Len(t, msg.Media, 1)
}

func TestParseClientMessageRejectsMalformedFrames(t *testing.T) {
	cases := map[string]string{
		"not json":            `{"type":`,
		"unknown type":        `{"type":"upload"}`,
		"missing type":        `{"message":"hi"}`,
		"empty message frame": `{"type":"message"}`,
		"empty answer frame":  `{"type":"answer","message":""}`,
		"bad media type":      `{"type":"message","media":[{"media_type":"video","key":"v.mp4"}]}`,
		"media without key":   `{"type":"message","media":[{"media_type":"image"}]}`,
	}
	for name, raw := range cases {
		_, err := ParseClientMessage([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestToTurnInput(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"answer","message":"a black one","media":[{"media_type":"audio","key":"uploads/clip.ogg","size_bytes":2048}]}`))
	require.NoError(t, err)

	turn := msg.ToTurnInput("sess-1", "user-1")
	assert.Equal(t, "sess-1", turn.SessionID)
	assert.Equal(t, "user-1", turn.UserID)
	assert.True(t, turn.IsAnswer)
	require.Len(t, turn.Media, 1)
	assert.Equal(t, store.MediaTypeAudio, turn.Media[0].MediaType)
	assert.Equal(t, int64(2048), turn.Media[0].SizeBytes)
}
