package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curviron/master/internal/rpc/wire"
)

type mkdirHeader struct {
	Path string
	Mode uint32
}

type mkdirResponse struct {
	Created bool
}

func TestNewRpcContext(t *testing.T) {
	msg := &wire.Message{Code: uint16(OpMkdir), RequestID: 42}
	rc := NewRpcContext(msg, "10.0.0.1:9000")

	assert.Equal(t, OpMkdir, rc.Code)
	assert.EqualValues(t, 42, rc.RequestID)
	assert.Equal(t, "10.0.0.1:9000", rc.RemoteAddr)
	assert.False(t, rc.StartTime.IsZero())
}

func TestParseHeaderRoundTrip(t *testing.T) {
	in := mkdirHeader{Path: "/a/b", Mode: 0755}
	payload, err := wire.EncodeHeader(in)
	require.NoError(t, err)

	rc := NewRpcContext(&wire.Message{Code: uint16(OpMkdir), RequestID: 1, Payload: payload}, "")
	got, err := ParseHeader[mkdirHeader](rc)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestParseHeaderMalformed(t *testing.T) {
	rc := NewRpcContext(&wire.Message{Code: uint16(OpMkdir), RequestID: 1, Payload: []byte{0xff, 0xff, 0xff}}, "")
	_, err := ParseHeader[mkdirHeader](rc)
	require.Error(t, err)
}

func TestSetAudit(t *testing.T) {
	rc := NewRpcContext(&wire.Message{Code: uint16(OpRename), RequestID: 1}, "")
	rc.SetAudit("/old", "/new")
	assert.Equal(t, "/old", rc.AuditSubject)
	assert.Equal(t, "/new", rc.AuditSubject2)
}

func TestResponseEncodesUnderSameCodeAndRequestID(t *testing.T) {
	rc := NewRpcContext(&wire.Message{Code: uint16(OpMkdir), RequestID: 7}, "")
	reply, err := Response(rc, mkdirResponse{Created: true})
	require.NoError(t, err)

	assert.Equal(t, uint16(OpMkdir), reply.Code)
	assert.EqualValues(t, 7, reply.RequestID)

	var out mkdirResponse
	require.NoError(t, wire.DecodeHeader(reply.Payload, &out))
	assert.True(t, out.Created)
}

func TestElapsedUSNonNegative(t *testing.T) {
	rc := NewRpcContext(&wire.Message{Code: uint16(OpMkdir), RequestID: 1}, "")
	assert.GreaterOrEqual(t, rc.ElapsedUS(), int64(0))
}
