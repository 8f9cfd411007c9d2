package amqp

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestNewAuditEventMessage(t *testing.T) {
	entry := core.AuditEntry{
		UserID:   7,
		Username: "admin",
		Action:   "CREATE_TRANSACTION",
		Entity:   "transaction",
		EntityID: 42,
		Details:  `{"amount":"42.50"}`,
	}

	msg := NewAuditEventMessage(entry)

	if msg.ActorID != 7 || msg.Actor != "admin" {
		t.Errorf("actor = %d/%q, want 7/admin", msg.ActorID, msg.Actor)
	}
	if msg.Action != "CREATE_TRANSACTION" || msg.EntityID != 42 {
		t.Errorf("action/entity id = %q/%d, want CREATE_TRANSACTION/42", msg.Action, msg.EntityID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be stamped when the entry has none")
	}

	stamped := entry
	stamped.Timestamp = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	if got := NewAuditEventMessage(stamped); !got.Timestamp.Equal(stamped.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, stamped.Timestamp)
	}
}

func TestAuditEventMessageJSON(t *testing.T) {
	msg := &AuditEventMessage{
		ActorID:   1,
		Actor:     "admin",
		Action:    "DELETE_CATEGORY",
		Entity:    "category",
		EntityID:  3,
		Timestamp: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := AuditEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("AuditEventMessageFromJSON() error = %v", err)
	}
	if parsed.Action != msg.Action || parsed.EntityID != msg.EntityID || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, msg)
	}
}

func TestAuditEventMessageInvalidJSON(t *testing.T) {
	if _, err := AuditEventMessageFromJSON([]byte(`{"entityId": "nope"}`)); err == nil {
		t.Error("AuditEventMessageFromJSON() should fail on malformed input")
	}
}
