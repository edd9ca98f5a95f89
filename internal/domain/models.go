package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payload is a product request stored for asynchronous processing
type Payload struct {
	ID        uuid.UUID
	Payload   json.RawMessage // JSONB
	Status    PayloadStatus
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayloadMessage is published on the broker once a payload row exists
type PayloadMessage struct {
	PayloadID string `json:"payload_id"`
}
