package engine

import (
	"strings"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
)

// Boundary values of the decision table: suspicion at or above 70 is met
// with defense, above 40 with evasion, anything lower with a bluff.
const (
	defensiveThreshold = 70
	evasiveThreshold   = 40
)

// ConcealClassifier reports whether a goal implies a secret to protect.
type ConcealClassifier func(model.Goal) bool

// LexicalConcealClassifier matches concealment keywords in the goal
// description. It backs up scenarios that do not set the explicit Conceal
// flag on their goals.
func LexicalConcealClassifier(keywords ...string) ConcealClassifier {
	return func(g model.Goal) bool {
		desc := strings.ToLower(g.Description)
		for _, kw := range keywords {
			if strings.Contains(desc, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	}
}

var defaultConcealKeywords = []string{"隐藏", "隐瞒", "hide", "conceal"}

// Selector maps (top-priority goal, suspicion of the interlocutor) to a
// strategy. It is a closed decision table, deterministic and independent of
// the language model.
type Selector struct {
	classifier ConcealClassifier
}

type SelectorOption func(*Selector)

// WithConcealClassifier replaces the fallback concealment detector.
func WithConcealClassifier(c ConcealClassifier) SelectorOption {
	return func(s *Selector) {
		s.classifier = c
	}
}

// NewSelector creates a selector with the default lexical fallback.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		classifier: LexicalConcealClassifier(defaultConcealKeywords...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks the stance of the next utterance. A character without a
// secret to protect always answers honestly.
func (s *Selector) Select(goals []model.Goal, suspicion float64) model.Strategy {
	goal, ok := model.TopGoal(goals)
	if !ok || !s.conceals(goal) {
		return model.StrategyHonest
	}

	switch {
	case suspicion >= defensiveThreshold:
		return model.StrategyDefensive
	case suspicion > evasiveThreshold:
		return model.StrategyEvasive
	default:
		return model.StrategyBluff
	}
}

func (s *Selector) conceals(goal model.Goal) bool {
	if goal.Conceal {
		return true
	}
	return s.classifier != nil && s.classifier(goal)
}
