package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes one message into a datagram.
func Encode(msg *NetplayMsgType) ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(msg); err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", msg.Hdr.Type, err)
	}
	return buffer.Bytes(), nil
}

// Decode parses a datagram. Anything that is not a well formed message is
// an error and should be dropped by the caller.
func Decode(data []byte) (*NetplayMsgType, error) {
	msg := new(NetplayMsgType)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	if msg.Hdr.Type == Invalid || msg.Hdr.Type > InputAck {
		return nil, fmt.Errorf("decoding message: unknown type %d", msg.Hdr.Type)
	}
	return msg, nil
}
