package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry kinds carried in sync messages.
const (
	KindExpense = "expense"
	KindSaving  = "saving"
)

// EntrySyncMessage asks the worker to back up one ledger entry. It carries
// only the kind and ID; the worker fetches the full row from the database.
type EntrySyncMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntrySyncMessage creates a sync message for one ledger entry
func NewEntrySyncMessage(kind string, id int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntrySyncMessageFromJSON creates a message from JSON bytes
func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind != KindExpense && msg.Kind != KindSaving {
		return nil, fmt.Errorf("unknown entry kind %q", msg.Kind)
	}
	return &msg, nil
}
