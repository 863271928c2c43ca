package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity names used in mutation messages.
const (
	EntityRevenue = "revenue"
	EntityExpense = "expense"
)

// Mutation is the lightweight message published after a confirmed
// mutation. It carries identity only; consumers fetch the full record
// from the API if they need it.
type Mutation struct {
	EventID    string    `json:"event_id"`
	Origin     string    `json:"origin"` // publishing session id
	Entity     string    `json:"entity"` // revenue | expense
	Op         string    `json:"op"`     // created | updated | deleted
	RecordID   string    `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMutation builds a mutation message with a fresh event id. Origin
// identifies the publishing session so consumers can skip their own
// events.
func NewMutation(origin, entity, op, recordID string) *Mutation {
	return &Mutation{
		EventID:    uuid.NewString(),
		Origin:     origin,
		Entity:     entity,
		Op:         op,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *Mutation) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationFromJSON creates a message from JSON bytes.
func MutationFromJSON(data []byte) (*Mutation, error) {
	var msg Mutation
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
