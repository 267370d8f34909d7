package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFrameKnownTypes(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"type":"message","chat_id":"c1","text":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, FrameMessage, frame.Type)
	require.Equal(t, "c1", frame.ChatID)
	require.Equal(t, "hi", frame.Text)

	frame, err = DecodeFrame([]byte(`{"type":"react","message_id":"m1","emoji":"👍"}`))
	require.NoError(t, err)
	require.Equal(t, FrameReact, frame.Type)
	require.Equal(t, "👍", frame.Emoji)
}

func TestDecodeFrameMalformed(t *testing.T) {
	_, err := DecodeFrame([]byte(`{not json`))
	require.ErrorIs(t, err, ErrMalformedFrame)

	_, err = DecodeFrame([]byte(`{"text":"no type"}`))
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeFrameUnknownType(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"type":"selfdestruct"}`))
	require.ErrorIs(t, err, ErrUnknownFrame)
}
