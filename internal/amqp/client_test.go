package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{40, 30 * time.Second}, // shift overflow still capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:5672: connection refused"),
			expected: true,
		},
		{
			name:     "connection closed",
			err:      errors.New("connection closed"),
			expected: true,
		},
		{
			name:     "EOF",
			err:      errors.New("unexpected EOF"),
			expected: true,
		},
		{
			name:     "broken pipe",
			err:      errors.New("write: broken pipe"),
			expected: true,
		},
		{
			name:     "channel not open",
			err:      errors.New("Exception (504) Reason: \"channel/connection is not open\""),
			expected: true,
		},
		{
			name:     "other error",
			err:      errors.New("some other error"),
			expected: false,
		},
		{
			name:     "validation error",
			err:      errors.New("invalid input"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestNewSyncMessage(t *testing.T) {
	id := uuid.New()
	version := int64(2)

	msg := NewSyncMessage(id, version)

	if msg.Type != TypeSync {
		t.Errorf("NewSyncMessage() Type = %v, want %v", msg.Type, TypeSync)
	}
	if msg.ID != id {
		t.Errorf("NewSyncMessage() ID = %v, want %v", msg.ID, id)
	}
	if msg.Version != version {
		t.Errorf("NewSyncMessage() Version = %v, want %v", msg.Version, version)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewSyncMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewSyncMessage() Timestamp should be recent")
	}
}

func TestNewDeleteMessage(t *testing.T) {
	id := uuid.New()

	msg := NewDeleteMessage(id)

	if msg.Type != TypeDelete {
		t.Errorf("NewDeleteMessage() Type = %v, want %v", msg.Type, TypeDelete)
	}
	if msg.ID != id {
		t.Errorf("NewDeleteMessage() ID = %v, want %v", msg.ID, id)
	}
	if msg.Version != 0 {
		t.Errorf("NewDeleteMessage() Version = %v, want 0", msg.Version)
	}
}

func TestSyncMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &SyncMessage{
		Type:      TypeSync,
		ID:        uuid.New(),
		Version:   2,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := SyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("SyncMessageFromJSON() error = %v", err)
	}

	if parsedMsg.Type != msg.Type {
		t.Errorf("Parsed Type = %v, want %v", parsedMsg.Type, msg.Type)
	}
	if parsedMsg.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsedMsg.ID, msg.ID)
	}
	if parsedMsg.Version != msg.Version {
		t.Errorf("Parsed Version = %v, want %v", parsedMsg.Version, msg.Version)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestSyncMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": "not_a_uuid", "version": 1}`)

	_, err := SyncMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("SyncMessageFromJSON() should fail with invalid JSON")
	}
}
