package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	m := &Message{Code: 7, RequestID: 1001, Payload: []byte("hello")}

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Code, out.Code)
	assert.Equal(t, m.RequestID, out.RequestID)
	assert.Equal(t, m.Payload, out.Payload)
}

func TestMessageEncodeDecodeEmptyPayload(t *testing.T) {
	m := &Message{Code: 1, RequestID: 1}

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, out.Payload)
}

func TestDecodeTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	m := &Message{Code: 1, RequestID: 1, Payload: []byte("payload")}
	require.NoError(t, m.Encode(&buf))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	_, err := Decode(truncated)
	assert.Error(t, err)
}

func TestMultipleMessagesOnStream(t *testing.T) {
	var buf bytes.Buffer
	first := &Message{Code: 1, RequestID: 1, Payload: []byte("a")}
	second := &Message{Code: 2, RequestID: 2, Payload: []byte("bb")}
	require.NoError(t, first.Encode(&buf))
	require.NoError(t, second.Encode(&buf))

	got1, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, first.RequestID, got1.RequestID)

	got2, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, second.RequestID, got2.RequestID)
}
