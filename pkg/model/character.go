package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type CharacterID string

type RoomID string

// NewRoomID generates a new unique RoomID
func NewRoomID() RoomID {
	return RoomID("room_" + uuid.New().String()[:8])
}

// Character is the immutable persona an agent plays for the session.
type Character struct {
	Name            CharacterID
	Persona         string
	PersonalityTags []string
	SpeakingStyle   string
	Goals           []Goal
}

// Validate checks if the character is playable
func (c *Character) Validate() error {
	if c.Name == "" {
		return goerr.New("character name is empty")
	}
	if c.Persona == "" {
		return goerr.New("character persona is empty", goerr.V("name", c.Name))
	}
	return nil
}

// SystemPrompt renders the persona into the system instruction used for
// every generation call of this character.
func (c *Character) SystemPrompt() string {
	var b strings.Builder
	b.WriteString(c.Persona)
	if len(c.PersonalityTags) > 0 {
		b.WriteString("\n性格：")
		b.WriteString(strings.Join(c.PersonalityTags, "、"))
	}
	if c.SpeakingStyle != "" {
		b.WriteString("\n说话风格：")
		b.WriteString(c.SpeakingStyle)
	}
	return b.String()
}
