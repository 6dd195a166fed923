package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage marks inbound payloads that cannot be decoded.
var ErrMalformedMessage = errors.New("malformed message")

// Envelope is one decoded inbound frame: {"type": "...", ...payload}.
type Envelope struct {
	Type string
	raw  []byte
}

// Decode reads the type tag of a frame. The payload stays raw until a
// handler asks for it with Bind.
func Decode(data []byte) (*Envelope, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return &Envelope{Type: head.Type, raw: data}, nil
}

// Bind decodes the payload fields into v.
func (e *Envelope) Bind(v any) error {
	if err := json.Unmarshal(e.raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedMessage, e.Type, err)
	}
	return nil
}

// Raw returns the undecoded frame.
func (e *Envelope) Raw() []byte { return e.raw }

// Encode serialises an outbound message. Outbound structs carry their own
// Type field so the result is a flat envelope.
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return data, nil
}
