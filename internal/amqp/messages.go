package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// AuditEventMessage mirrors one audit log entry on the wire. Consumers
// get the full event so they can feed external sinks without a
// database round trip.
type AuditEventMessage struct {
	ActorID   int64     `json:"actorId"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entityId"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAuditEventMessage(e core.AuditEntry) *AuditEventMessage {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &AuditEventMessage{
		ActorID:   e.UserID,
		Actor:     e.Username,
		Action:    e.Action,
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Details:   e.Details,
		Timestamp: ts,
	}
}

func (m *AuditEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AuditEventMessageFromJSON(data []byte) (*AuditEventMessage, error) {
	var msg AuditEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
