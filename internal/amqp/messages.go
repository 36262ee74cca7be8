package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SemestersChangedMessage announces that the stored semester list was written.
// It carries no rows; consumers read the current list from the store.
type SemestersChangedMessage struct {
	ID        string    `json:"id"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSemestersChangedMessage creates a message with a fresh ID
func NewSemestersChangedMessage(count int) *SemestersChangedMessage {
	return &SemestersChangedMessage{
		ID:        uuid.NewString(),
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SemestersChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SemestersChangedMessageFromJSON creates a message from JSON bytes
func SemestersChangedMessageFromJSON(data []byte) (*SemestersChangedMessage, error) {
	var msg SemestersChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
