package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Config controls the per-stage timeouts and retrieval bounds of a turn.
// Every external call carries its own timeout, so a turn always terminates
// within the sum of the stage timeouts.
type Config struct {
	RetrieveTimeout time.Duration
	AssessTimeout   time.Duration
	GenerateTimeout time.Duration

	// RetrieveLimit is how many memories are pulled from the knowledge
	// store; PromptMemories is how many of those make it into the
	// generation prompt.
	RetrieveLimit  int
	PromptMemories int
	MinRelevance   float64

	Temperature float32
}

func (c *Config) setDefaults() {
	if c.RetrieveTimeout == 0 {
		c.RetrieveTimeout = 10 * time.Second
	}
	if c.AssessTimeout == 0 {
		c.AssessTimeout = 10 * time.Second
	}
	if c.GenerateTimeout == 0 {
		c.GenerateTimeout = 30 * time.Second
	}
	if c.RetrieveLimit == 0 {
		c.RetrieveLimit = 3
	}
	if c.PromptMemories == 0 {
		c.PromptMemories = 2
	}
	if c.MinRelevance == 0 {
		c.MinRelevance = 0.5
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
}

// Engine drives one character through the fixed turn pipeline:
// perceive, retrieve memory, update suspicion, select strategy, generate.
// Turns of one engine execute strictly one at a time in arrival order;
// different characters' engines share nothing but the room history.
type Engine struct {
	mu sync.Mutex

	character *model.Character
	scope     model.Scope
	roomID    model.RoomID

	knowledge interfaces.KnowledgeSearcher
	llm       interfaces.LLMClient
	history   interfaces.History

	ledger   *Ledger
	selector *Selector
	cfg      Config
}

// NewInput contains the dependencies of a character engine.
type NewInput struct {
	Character *model.Character
	Scope     model.Scope
	RoomID    model.RoomID
	Knowledge interfaces.KnowledgeSearcher
	LLM       interfaces.LLMClient
	History   interfaces.History

	Config   Config
	Selector *Selector // optional, defaults to NewSelector()
}

func New(input NewInput) (*Engine, error) {
	if input.Character == nil {
		return nil, goerr.New("character is required")
	}
	if err := input.Character.Validate(); err != nil {
		return nil, err
	}
	if input.Scope.Character() != input.Character.Name {
		return nil, goerr.Wrap(model.ErrInvalidScope, "engine scope belongs to another character",
			goerr.V("character", input.Character.Name), goerr.V("scope", input.Scope.Character()))
	}
	if input.Knowledge == nil || input.LLM == nil {
		return nil, goerr.New("knowledge searcher and LLM client are required")
	}

	selector := input.Selector
	if selector == nil {
		selector = NewSelector()
	}

	cfg := input.Config
	cfg.setDefaults()

	return &Engine{
		character: input.Character,
		scope:     input.Scope,
		roomID:    input.RoomID,
		knowledge: input.Knowledge,
		llm:       input.LLM,
		history:   input.History,
		ledger:    NewLedger(input.Character.Name),
		selector:  selector,
		cfg:       cfg,
	}, nil
}

// Character returns the persona this engine plays.
func (e *Engine) Character() *model.Character {
	return e.character
}

// SuspicionOf exposes the ledger for observability by the room layer.
func (e *Engine) SuspicionOf(char model.CharacterID) float64 {
	return e.ledger.ScoreOf(char)
}

type turn struct {
	sender    model.CharacterID
	content   string
	memories  []*interfaces.VectorHit
	suspicion float64
	strategy  model.Strategy
	message   *model.Message
	silent    bool
}

type stage struct {
	name string
	fn   func(ctx context.Context, t *turn) error
}

func (e *Engine) stages() []stage {
	return []stage{
		{"perceive", e.perceive},
		{"retrieve_memory", e.retrieveMemory},
		{"update_suspicion", e.updateSuspicion},
		{"decide_strategy", e.decideStrategy},
		{"generate", e.generate},
	}
}

// Respond runs one turn for an inbound utterance and returns the outbound
// message, or nil for a silent turn. Service failures degrade inside their
// stage and never surface past the engine boundary; an error return means a
// broken invariant, not a broken collaborator.
func (e *Engine) Respond(ctx context.Context, sender model.CharacterID, content string) (*model.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := &turn{sender: sender, content: content}
	for _, st := range e.stages() {
		if err := st.fn(ctx, t); err != nil {
			return nil, goerr.Wrap(err, "turn failed",
				goerr.V("character", e.character.Name), goerr.V("stage", st.name))
		}
		if t.silent {
			return nil, nil
		}
	}

	return t.message, nil
}

// perceive normalizes the inbound pair. An empty utterance ends the turn
// with no reply.
func (e *Engine) perceive(ctx context.Context, t *turn) error {
	t.content = strings.TrimSpace(t.content)
	if t.content == "" {
		t.silent = true
	}
	return nil
}

// retrieveMemory pulls relevant facts under the character's own scope. A
// failing store degrades to an empty memory set: the agent answers vaguely
// instead of halting the game.
func (e *Engine) retrieveMemory(ctx context.Context, t *turn) error {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RetrieveTimeout)
	defer cancel()

	hits, err := e.knowledge.Search(rctx, e.scope, t.content, e.scope.AllowedTags(), e.cfg.RetrieveLimit, e.cfg.MinRelevance)
	if err != nil {
		if errors.Is(err, model.ErrInvalidScope) {
			return err
		}
		logging.From(ctx).Warn("memory retrieval failed, continuing without memories",
			"character", e.character.Name, "error", err)
		t.memories = nil
		return nil
	}

	t.memories = hits
	return nil
}

// updateSuspicion judges the claim against retrieved memories and applies
// the damped accumulation. Skipped for the character's own words, and when
// nothing was recalled: absence of memory is not evidence of lying.
func (e *Engine) updateSuspicion(ctx context.Context, t *turn) error {
	if t.sender == e.character.Name || len(t.memories) == 0 {
		t.suspicion = e.ledger.ScoreOf(t.sender)
		return nil
	}

	actx, cancel := context.WithTimeout(ctx, e.cfg.AssessTimeout)
	defer cancel()

	conflict, reason, err := e.ledger.Assess(actx, e.llm, memoryTexts(t.memories), t.sender, t.content)
	if err != nil {
		logging.From(ctx).Warn("conflict assessment failed, treating as no conflict",
			"character", e.character.Name, "speaker", t.sender, "error", err)
		conflict = 0
	}

	t.suspicion = e.ledger.Update(t.sender, conflict)
	if conflict > 0 {
		logging.From(ctx).Debug("suspicion updated",
			"character", e.character.Name, "speaker", t.sender,
			"conflict", conflict, "reason", reason, "suspicion", t.suspicion)
	}
	return nil
}

func (e *Engine) decideStrategy(ctx context.Context, t *turn) error {
	t.strategy = e.selector.Select(e.character.Goals, t.suspicion)
	logging.From(ctx).Debug("strategy selected",
		"character", e.character.Name, "speaker", t.sender,
		"strategy", t.strategy, "suspicion", t.suspicion)
	return nil
}

// generate produces the outbound utterance. A failing model means silence
// for the turn: every uttered line must trace back to a strategy decision,
// so no fabricated fallback text.
func (e *Engine) generate(ctx context.Context, t *turn) error {
	memories := memoryTexts(t.memories)
	if len(memories) > e.cfg.PromptMemories {
		memories = memories[:e.cfg.PromptMemories]
	}

	userPrompt, err := buildRespondPrompt(e.character.Name, t.strategy, memories, t.sender, t.content)
	if err != nil {
		return err
	}

	gctx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	reply, err := e.llm.Complete(gctx, e.character.SystemPrompt(), userPrompt, e.cfg.Temperature)
	if err != nil {
		logging.From(ctx).Warn("generation failed, staying silent",
			"character", e.character.Name,
			"error", goerr.Wrap(model.ErrGenerationFailed, err.Error()))
		t.silent = true
		return nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		t.silent = true
		return nil
	}

	msg := &model.Message{
		ID:        model.NewMessageID(),
		RoomID:    e.roomID,
		Sender:    e.character.Name,
		Content:   reply,
		Strategy:  t.strategy,
		CreatedAt: time.Now(),
	}
	if e.history != nil {
		e.history.Append(msg)
	}
	t.message = msg
	return nil
}

func memoryTexts(hits []*interfaces.VectorHit) []string {
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Fact.Content)
	}
	return texts
}
