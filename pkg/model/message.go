package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageID string

// NewMessageID generates a new unique MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

// Message is one line of the room conversation. Outbound messages produced
// by an agent carry the strategy that shaped them; inbound player messages
// carry an empty strategy.
type Message struct {
	ID        MessageID
	RoomID    RoomID
	Sender    CharacterID
	Content   string
	Strategy  Strategy
	CreatedAt time.Time
}
