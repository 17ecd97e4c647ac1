package eventlog

import (
	"encoding/json"
	"fmt"
	"time"
)

type jsonEvent struct {
	Seq       int             `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the event with its payload nested under "payload".
func (e Event) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Kind, err)
	}
	return json.Marshal(jsonEvent{
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		Payload:   payload,
	})
}

// UnmarshalJSON decodes an event, choosing the payload type from its kind.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw jsonEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := NewPayload(raw.Kind)
	if err != nil {
		return err
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Kind, err)
		}
	}
	*e = Event{
		Seq:       raw.Seq,
		Timestamp: raw.Timestamp,
		Kind:      raw.Kind,
		Payload:   payload,
	}
	return nil
}
