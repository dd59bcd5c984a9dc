package amqp

import (
	"testing"
	"time"
)

func TestNewEntrySyncMessage(t *testing.T) {
	msg := NewEntrySyncMessage(KindExpense, 12345)

	if msg.Kind != KindExpense {
		t.Errorf("NewEntrySyncMessage() Kind = %v, want %v", msg.Kind, KindExpense)
	}
	if msg.ID != 12345 {
		t.Errorf("NewEntrySyncMessage() ID = %v, want 12345", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewEntrySyncMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewEntrySyncMessage() Timestamp should be recent")
	}
}

func TestEntrySyncMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &EntrySyncMessage{
		Kind:      KindSaving,
		ID:        12345,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := EntrySyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("EntrySyncMessageFromJSON() error = %v", err)
	}

	if parsedMsg.Kind != msg.Kind {
		t.Errorf("Parsed Kind = %v, want %v", parsedMsg.Kind, msg.Kind)
	}
	if parsedMsg.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsedMsg.ID, msg.ID)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestEntrySyncMessage_InvalidJSON(t *testing.T) {
	if _, err := EntrySyncMessageFromJSON([]byte(`{"id": "not_a_number"}`)); err == nil {
		t.Error("EntrySyncMessageFromJSON() should fail with invalid JSON")
	}

	if _, err := EntrySyncMessageFromJSON([]byte(`{"kind": "bogus", "id": 1}`)); err == nil {
		t.Error("EntrySyncMessageFromJSON() should reject unknown entry kinds")
	}
}
