package engine

import (
	"context"
	"sync"

	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// suspicionDamping keeps a single utterance from saturating trust collapse:
// consistent lies compound, one ambiguous answer does not.
const suspicionDamping = 0.3

// Ledger tracks how much its owning character distrusts each other actor.
// Scores live in [0,100], start at zero, and only ever grow.
type Ledger struct {
	mu     sync.RWMutex
	owner  model.CharacterID
	scores map[model.CharacterID]float64
}

// NewLedger creates an empty suspicion ledger owned by the given character.
func NewLedger(owner model.CharacterID) *Ledger {
	return &Ledger{
		owner:  owner,
		scores: make(map[model.CharacterID]float64),
	}
}

// Assess asks the language model how strongly the speaker's claim conflicts
// with the retrieved memories. This is the one place a numeric judgment is
// requested from the model rather than free text.
func (l *Ledger) Assess(ctx context.Context, llm interfaces.LLMClient, memories []string, speaker model.CharacterID, claim string) (float64, string, error) {
	userPrompt, err := buildJudgePrompt(l.owner, memories, speaker, claim)
	if err != nil {
		return 0, "", err
	}

	raw, err := llm.Complete(ctx, judgeSystemPrompt, userPrompt, judgeTemperature)
	if err != nil {
		return 0, "", goerr.Wrap(err, "conflict assessment call failed",
			goerr.V("speaker", speaker))
	}

	j, err := parseJudgment(raw)
	if err != nil {
		return 0, "", err
	}

	return j.ConflictScore, j.Reason, nil
}

// Update applies a damped, clamped accumulation of the conflict score and
// returns the new suspicion of the speaker. Self-assessment and negative
// conflict scores are no-ops.
func (l *Ledger) Update(speaker model.CharacterID, conflict float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.scores[speaker]
	if speaker == l.owner || conflict <= 0 {
		return current
	}

	next := current + conflict*suspicionDamping
	if next > 100 {
		next = 100
	}
	l.scores[speaker] = next
	return next
}

// ScoreOf returns the suspicion of the speaker, zero for unseen pairs.
func (l *Ledger) ScoreOf(speaker model.CharacterID) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scores[speaker]
}
