package outbox

import (
	"encoding/json"
	"time"
)

// PayloadEnvelope is the wire shape stored in outbox_events and published
// to subscribers. Data carries the event-specific body; the envelope fields
// stay stable across event types so consumers can route on them.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}
