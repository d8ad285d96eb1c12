package scenario

import (
	"context"
	"fmt"

	"github.com/kagemusha-ai/kagemusha/pkg/knowledge"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Seed provisions a scope for every character and fills it with the
// scenario's knowledge. Public scene facts are replicated into every
// character's namespace, so one search under one namespace answers a turn;
// private facts go only into their owner's namespace under the owner's tag.
func Seed(ctx context.Context, store *knowledge.Store, sc *Scenario) error {
	for _, char := range sc.Characters {
		scope, err := store.CreateScope(ctx, model.CharacterID(char.Name))
		if err != nil {
			return goerr.Wrap(err, "failed to create scope", goerr.V("character", char.Name))
		}

		facts := collectFacts(sc, &char, scope)
		if err := store.InsertBatch(ctx, scope, facts); err != nil {
			return goerr.Wrap(err, "failed to seed knowledge", goerr.V("character", char.Name))
		}

		logging.From(ctx).Info("knowledge seeded",
			"character", char.Name, "facts", len(facts))
	}

	return nil
}

func collectFacts(sc *Scenario, char *Character, scope model.Scope) []*model.Fact {
	var facts []*model.Fact

	if sc.Scene.Environment != "" {
		facts = append(facts, model.NewFact(sc.Scene.Environment, model.TagPublic, model.KindFact))
	}
	if sc.Scene.Name != "" {
		facts = append(facts, model.NewFact("当前场景："+sc.Scene.Name, model.TagPublic, model.KindFact))
	}

	for _, obj := range sc.Scene.Objects {
		clue := fmt.Sprintf("%s: %s", obj.Item, obj.State)
		switch model.Tag(obj.Permission) {
		case model.TagPublic:
			facts = append(facts, model.NewFact(clue, model.TagPublic, model.KindClue))
		case scope.PrivateTag():
			facts = append(facts, model.NewFact(clue, scope.PrivateTag(), model.KindClue))
		}
	}

	if char.Secret != "" {
		facts = append(facts, model.NewFact(char.Secret, scope.PrivateTag(), model.KindFact))
	}
	for _, text := range char.PrivateFacts {
		if text != "" {
			facts = append(facts, model.NewFact(text, scope.PrivateTag(), model.KindFact))
		}
	}

	return facts
}
