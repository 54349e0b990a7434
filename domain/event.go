package domain

import "time"

// Event represents an immutable record of a change applied inside an aggregate.
// Events accumulate on the aggregate in emission order and are removed only by
// an explicit clear once they have been handed to a publisher.
type Event struct {
	Type        string                 `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent builds an event record stamped with the current time.
func NewEvent(eventType, aggregateID string, payload map[string]interface{}) Event {
	return Event{
		Type:        eventType,
		AggregateID: aggregateID,
		Timestamp:   time.Now(),
		Payload:     payload,
	}
}

// Copy returns a detached copy so callers cannot mutate an appended record.
func (e Event) Copy() Event {
	out := e
	if e.Payload != nil {
		out.Payload = make(map[string]interface{}, len(e.Payload))
		for k, v := range e.Payload {
			out.Payload[k] = v
		}
	}
	return out
}
