package room

import (
	"context"
	"time"

	"github.com/kagemusha-ai/kagemusha/pkg/engine"
	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/knowledge"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/scenario"
	"github.com/m-mizutani/goerr/v2"
)

// Room owns one deception engine per character and routes utterances to
// them. Engines never see each other; the transcript is their only shared
// state.
type Room struct {
	id         model.RoomID
	title      string
	engines    map[model.CharacterID]*engine.Engine
	characters []model.CharacterID
	transcript *Transcript
}

// NewInput contains parameters for setting up a room from a scenario.
type NewInput struct {
	ID       model.RoomID // optional, generated when empty
	Scenario *scenario.Scenario
	Embedder interfaces.Embedder
	Index    interfaces.VectorIndex
	LLM      interfaces.LLMClient

	Engine engine.Config
}

// New provisions the knowledge base for every character in the scenario and
// builds their engines.
func New(ctx context.Context, input NewInput) (*Room, error) {
	if input.Scenario == nil {
		return nil, goerr.New("scenario is required")
	}

	id := input.ID
	if id == "" {
		id = model.NewRoomID()
	}

	store := knowledge.New(input.Embedder, input.Index, id)
	if err := scenario.Seed(ctx, store, input.Scenario); err != nil {
		return nil, goerr.Wrap(err, "failed to seed room knowledge", goerr.V("room", id))
	}

	rm := &Room{
		id:         id,
		title:      input.Scenario.Title,
		engines:    make(map[model.CharacterID]*engine.Engine, len(input.Scenario.Characters)),
		transcript: NewTranscript(),
	}

	for _, char := range input.Scenario.Characters {
		charID := model.CharacterID(char.Name)

		// CreateScope is idempotent; Seed already provisioned the namespace.
		scope, err := store.CreateScope(ctx, charID)
		if err != nil {
			return nil, err
		}

		eng, err := engine.New(engine.NewInput{
			Character: char.Model(),
			Scope:     scope,
			RoomID:    id,
			Knowledge: store,
			LLM:       input.LLM,
			History:   rm.transcript,
			Config:    input.Engine,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build engine", goerr.V("character", charID))
		}

		rm.engines[charID] = eng
		rm.characters = append(rm.characters, charID)
	}

	return rm, nil
}

// ID returns the room ID.
func (r *Room) ID() model.RoomID {
	return r.id
}

// Title returns the scenario title the room plays.
func (r *Room) Title() string {
	return r.title
}

// Characters returns the playable characters in scenario order.
func (r *Room) Characters() []model.CharacterID {
	return r.characters
}

// Transcript returns the room's conversation history.
func (r *Room) Transcript() *Transcript {
	return r.transcript
}

// Ask records the inbound utterance and routes it to the target character's
// engine. A nil message with nil error means the character stayed silent.
func (r *Room) Ask(ctx context.Context, sender, target model.CharacterID, content string) (*model.Message, error) {
	eng, ok := r.engines[target]
	if !ok {
		return nil, goerr.Wrap(model.ErrCharacterNotFound, "no such character in room",
			goerr.V("room", r.id), goerr.V("character", target))
	}

	r.transcript.Append(&model.Message{
		ID:        model.NewMessageID(),
		RoomID:    r.id,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	})

	return eng.Respond(ctx, sender, content)
}

// SuspicionOf reports how much the observer distrusts the speaker.
func (r *Room) SuspicionOf(observer, speaker model.CharacterID) (float64, error) {
	eng, ok := r.engines[observer]
	if !ok {
		return 0, goerr.Wrap(model.ErrCharacterNotFound, "no such character in room",
			goerr.V("room", r.id), goerr.V("character", observer))
	}
	return eng.SuspicionOf(speaker), nil
}
