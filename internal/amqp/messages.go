package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeSync   = "sync"
	TypeDelete = "delete"
)

// SyncMessage is a lightweight queue message for mirroring a transaction
// to the spreadsheet. It carries only the ID and version; the worker
// fetches the full row from the database.
type SyncMessage struct {
	Type      string    `json:"type"`
	ID        uuid.UUID `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncMessage creates a sync message for a created or updated transaction.
func NewSyncMessage(id uuid.UUID, version int64) *SyncMessage {
	return &SyncMessage{
		Type:      TypeSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewDeleteMessage creates a message for a deleted transaction.
func NewDeleteMessage(id uuid.UUID) *SyncMessage {
	return &SyncMessage{
		Type:      TypeDelete,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON creates a message from JSON bytes
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
