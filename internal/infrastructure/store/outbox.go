package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is an event written in the same transaction as the state
// change it describes, and relayed to Kafka afterwards.
type OutboxMessage struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"eventId"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	SentAt    *time.Time      `json:"sentAt,omitempty"`
}

// NewOutboxMessage marshals payload for the given event type and key.
func NewOutboxMessage(eventType, key string, payload any, now time.Time) (OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return OutboxMessage{
		EventID:   uuid.New().String(),
		Topic:     eventType,
		Key:       key,
		Payload:   data,
		CreatedAt: now,
	}, nil
}
