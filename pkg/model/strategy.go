package model

import "github.com/m-mizutani/goerr/v2"

// Strategy classifies the behavioral stance of the next utterance. It is
// recomputed every turn and never persisted beyond the message it produced.
type Strategy string

const (
	StrategyHonest    Strategy = "honest"
	StrategyBluff     Strategy = "bluff"
	StrategyDefensive Strategy = "defensive"
	StrategyEvasive   Strategy = "evasive"
)

// Validate checks if the strategy is valid
func (s Strategy) Validate() error {
	switch s {
	case StrategyHonest, StrategyBluff, StrategyDefensive, StrategyEvasive:
		return nil
	default:
		return goerr.New("invalid strategy", goerr.V("strategy", s))
	}
}

var strategyInstructions = map[Strategy]string{
	StrategyHonest:    "诚实地回答，基于你的记忆提供真实信息。",
	StrategyBluff:     "编造一个合理的谎言来掩盖真相。确保谎言符合逻辑且难以被察觉。",
	StrategyDefensive: "转移话题或表示不愿谈论。使用“我不想谈这个”或“这不重要”等表达。",
	StrategyEvasive:   "给出含糊的回答，既不完全承认也不完全否认。",
}

// Instruction returns the behavioral instruction injected into the
// generation prompt for this strategy.
func (s Strategy) Instruction() string {
	return strategyInstructions[s]
}
