package usecase

import (
	"time"

	"github.com/google/uuid"
)

// Command is the envelope every state-changing intent travels in. The ID and
// timestamp are generated here, never supplied by the caller; Name is the
// static type tag the command bus routes on.
type Command struct {
	CommandID     string      `json:"command_id"`
	Name          string      `json:"name"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	CausationID   string      `json:"causation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// NewCommand builds a command envelope stamped with a fresh ID and the
// current time.
func NewCommand(name string, data interface{}) *Command {
	return &Command{
		CommandID: uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// WithCorrelation attaches tracing identifiers and returns the command for
// chaining.
func (c *Command) WithCorrelation(correlationID, causationID string) *Command {
	c.CorrelationID = correlationID
	c.CausationID = causationID
	return c
}

// Query is the envelope every read intent travels in, with the same
// generation rules as Command.
type Query struct {
	QueryID       string      `json:"query_id"`
	Name          string      `json:"name"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	CausationID   string      `json:"causation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// NewQuery builds a query envelope stamped with a fresh ID and the current
// time.
func NewQuery(name string, data interface{}) *Query {
	return &Query{
		QueryID:   uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// WithCorrelation attaches tracing identifiers and returns the query for
// chaining.
func (q *Query) WithCorrelation(correlationID, causationID string) *Query {
	q.CorrelationID = correlationID
	q.CausationID = causationID
	return q
}
