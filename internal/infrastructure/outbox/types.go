package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/idforge/backend/domain"
)

// Record is one buffered domain event awaiting relay to the event bus.
type Record struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	EmittedAt   time.Time       `json:"emitted_at"`
	Timestamp   time.Time       `json:"timestamp"`
	Retries     int             `json:"retries"`

	bucketKey []byte
}

func (r *Record) normalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
}

// newRecord converts a domain event into its buffered form.
func newRecord(event domain.Event) (Record, error) {
	var payload json.RawMessage
	if event.Payload != nil {
		b, err := json.Marshal(event.Payload)
		if err != nil {
			return Record{}, err
		}
		payload = b
	}
	return Record{
		ID:          uuid.NewString(),
		AggregateID: event.AggregateID,
		EventType:   event.Type,
		Payload:     payload,
		EmittedAt:   event.Timestamp,
		Timestamp:   time.Now(),
	}, nil
}

// Event rebuilds the domain event carried by the record.
func (r Record) Event() domain.Event {
	var payload map[string]interface{}
	if len(r.Payload) > 0 {
		_ = json.Unmarshal(r.Payload, &payload)
	}
	return domain.Event{
		Type:        r.EventType,
		AggregateID: r.AggregateID,
		Timestamp:   r.EmittedAt,
		Payload:     payload,
	}
}
