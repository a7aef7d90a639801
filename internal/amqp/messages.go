package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventProfileUpdated is the AMQP message type of ProfileUpdatedMessage.
const EventProfileUpdated = "profile.updated"

var ErrMalformedMessage = errors.New("malformed profile update message")

// ProfileUpdatedMessage announces that a user's profile reached Version.
// It carries no profile data; the worker reads the current row from the
// database.
type ProfileUpdatedMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProfileUpdatedMessage(userID string, version int64) *ProfileUpdatedMessage {
	return &ProfileUpdatedMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ProfileUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProfileUpdatedMessageFromJSON decodes a message body. Bodies that are not
// JSON, lack a user id, or carry a non-positive version are rejected with
// ErrMalformedMessage.
func ProfileUpdatedMessageFromJSON(data []byte) (*ProfileUpdatedMessage, error) {
	var msg ProfileUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrMalformedMessage)
	}
	if msg.Version <= 0 {
		return nil, fmt.Errorf("%w: version %d", ErrMalformedMessage, msg.Version)
	}
	return &msg, nil
}
