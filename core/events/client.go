package events

import (
	"encoding/json"
	"fmt"
)

// ClientEvent is the outbound envelope: an event type, a locally generated
// event id, and the type-specific payload fields.
type ClientEvent struct {
	Type    string
	EventID string
	Data    map[string]any
}

// MarshalJSON flattens the payload fields next to type and event_id, matching
// the wire format the backend expects.
func (e ClientEvent) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Data)+2)
	for key, value := range e.Data {
		if key == "type" || key == "event_id" {
			return nil, fmt.Errorf("client event payload must not carry reserved field %q", key)
		}
		flat[key] = value
	}
	flat["type"] = e.Type
	flat["event_id"] = e.EventID
	return json.Marshal(flat)
}
