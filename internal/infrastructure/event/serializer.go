package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// Notification is the envelope every PMS notification travels in
type Notification struct {
	ID         uuid.UUID                `json:"id"`
	Name       string                   `json:"name"`
	OccurredAt time.Time                `json:"occurredAt"`
	Payload    integration.EventPayload `json:"payload"`
}

// NewNotification wraps a payload in an envelope with a fresh ID
func NewNotification(name string, payload integration.EventPayload) Notification {
	occurred := payload.Timestamp
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return Notification{ID: uuid.New(), Name: name, OccurredAt: occurred, Payload: payload}
}

// Key returns the partition key; notifications of one hotel stay ordered
func (n Notification) Key() []byte {
	return []byte(n.Payload.HotelID.String())
}

// Serialize encodes a notification as JSON
func Serialize(n Notification) ([]byte, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification %s: %w", n.Name, err)
	}
	return b, nil
}

// Deserialize decodes a notification produced by Serialize
func Deserialize(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	if n.Name == "" {
		return Notification{}, fmt.Errorf("notification has no name")
	}
	return n, nil
}
