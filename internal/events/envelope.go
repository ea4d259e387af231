package events

import (
	"encoding/json"
	"fmt"
)

// Payload is the JSON object carried by an emission.
type Payload = map[string]any

// Envelope is the wire format shared by every transport.
type Envelope struct {
	Event     string  `json:"event"`
	Group     string  `json:"group,omitempty"`
	Payload   Payload `json:"payload"`
	Timestamp string  `json:"timestamp"`
}

// NewEnvelope wraps an emission. The timestamp is lifted from the payload.
func NewEnvelope(group, event string, payload Payload) Envelope {
	ts, _ := payload[TimestampField].(string)
	return Envelope{
		Event:     event,
		Group:     group,
		Payload:   payload,
		Timestamp: ts,
	}
}

// IsBroadcast reports whether the envelope targets every listener.
func (e Envelope) IsBroadcast() bool {
	return e.Group == ""
}

func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope %s: %w", e.Event, err)
	}
	return data, nil
}

func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return env, nil
}
