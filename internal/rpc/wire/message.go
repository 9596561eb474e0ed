// Package wire implements the length-prefixed message envelope and the
// protobuf-backed typed-header codec used to carry per-operation request
// and response headers across the wire. Framing and connection state are
// owned by this package, not by the dispatch core that consumes it.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Message is the decoded request/response envelope handed to the dispatch
// core. Payload is the protobuf-encoded typed header for Code.
type Message struct {
	Code      uint16
	RequestID int64
	Payload   []byte
}

// Encode writes the length-prefixed wire representation of m to w.
//
// Layout: [total_len:uint32][code:uint16][request_id:int64][payload_len:uint32][payload]
func (m *Message) Encode(w io.Writer) error {
	var body bytes.Buffer
	if err := binary.Write(&body, binary.BigEndian, m.Code); err != nil {
		return fmt.Errorf("write code: %w", err)
	}
	if err := binary.Write(&body, binary.BigEndian, m.RequestID); err != nil {
		return fmt.Errorf("write request id: %w", err)
	}
	if err := binary.Write(&body, binary.BigEndian, uint32(len(m.Payload))); err != nil {
		return fmt.Errorf("write payload length: %w", err)
	}
	if _, err := body.Write(m.Payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	if err := binary.Write(w, binary.BigEndian, uint32(body.Len())); err != nil {
		return fmt.Errorf("write total length: %w", err)
	}
	_, err := w.Write(body.Bytes())
	return err
}

// Decode reads one length-prefixed message from r.
func Decode(r io.Reader) (*Message, error) {
	var totalLen uint32
	if err := binary.Read(r, binary.BigEndian, &totalLen); err != nil {
		return nil, fmt.Errorf("read total length: %w", err)
	}

	body := make([]byte, totalLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}

	br := bytes.NewReader(body)
	m := &Message{}
	if err := binary.Read(br, binary.BigEndian, &m.Code); err != nil {
		return nil, fmt.Errorf("read code: %w", err)
	}
	if err := binary.Read(br, binary.BigEndian, &m.RequestID); err != nil {
		return nil, fmt.Errorf("read request id: %w", err)
	}
	var payloadLen uint32
	if err := binary.Read(br, binary.BigEndian, &payloadLen); err != nil {
		return nil, fmt.Errorf("read payload length: %w", err)
	}
	m.Payload = make([]byte, payloadLen)
	if _, err := io.ReadFull(br, m.Payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return m, nil
}
