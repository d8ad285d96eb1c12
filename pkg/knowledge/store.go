package knowledge

import (
	"context"
	"fmt"

	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Store gives each character an isolated, semantically searchable memory on
// top of a shared vector index. Isolation rests on two independent walls:
// every character has its own namespace, and every search carries the
// permission tag filter inside the query it sends to the index. Callers
// outside this package never touch the index directly.
type Store struct {
	embedder interfaces.Embedder
	index    interfaces.VectorIndex
	roomID   model.RoomID
}

// New creates a knowledge store for one room.
func New(embedder interfaces.Embedder, index interfaces.VectorIndex, roomID model.RoomID) *Store {
	return &Store{
		embedder: embedder,
		index:    index,
		roomID:   roomID,
	}
}

func (s *Store) namespace(char model.CharacterID) string {
	return fmt.Sprintf("game_%s_agent_%s", s.roomID, char)
}

// CreateScope idempotently provisions the character's namespace and returns
// the scope it may read through. Calling it twice is a no-op.
func (s *Store) CreateScope(ctx context.Context, char model.CharacterID) (model.Scope, error) {
	if char == "" {
		return model.Scope{}, goerr.New("character ID is empty")
	}

	if err := s.index.EnsureNamespace(ctx, s.namespace(char)); err != nil {
		return model.Scope{}, goerr.Wrap(model.ErrStoreUnavailable, "failed to provision scope",
			goerr.V("character", char), goerr.V("cause", err.Error()))
	}

	return model.NewScope(char), nil
}

// checkTag rejects any tag the scope may not carry. This runs before any
// store mutation or query: a cross-character private tag must never reach
// the index.
func checkTag(scope model.Scope, tag model.Tag) error {
	if err := tag.Validate(); err != nil {
		return err
	}
	if !scope.Allows(tag) {
		return goerr.Wrap(model.ErrInvalidScope, "tag is outside the character's scope",
			goerr.V("character", scope.Character()), goerr.V("tag", tag))
	}
	return nil
}

// Insert stores one fact under the character's namespace, keyed by the
// fact's content hash. Re-inserting identical text is idempotent.
func (s *Store) Insert(ctx context.Context, scope model.Scope, fact *model.Fact) error {
	if err := fact.Validate(); err != nil {
		return err
	}
	if err := checkTag(scope, fact.Tag); err != nil {
		return err
	}

	vector, err := s.embedder.Embed(ctx, fact.Content)
	if err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to embed fact",
			goerr.V("fact", fact.ID), goerr.V("cause", err.Error()))
	}

	entry := &interfaces.VectorEntry{ID: string(fact.ID), Vector: vector, Fact: fact}
	if err := s.index.Upsert(ctx, s.namespace(scope.Character()), entry); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to store fact",
			goerr.V("fact", fact.ID), goerr.V("cause", err.Error()))
	}

	return nil
}

// InsertBatch stores facts as a single batch. All tags are validated before
// any embedding happens, and any failure reports the whole batch as failed.
func (s *Store) InsertBatch(ctx context.Context, scope model.Scope, facts []*model.Fact) error {
	for _, fact := range facts {
		if err := fact.Validate(); err != nil {
			return err
		}
		if err := checkTag(scope, fact.Tag); err != nil {
			return err
		}
	}

	entries := make([]*interfaces.VectorEntry, 0, len(facts))
	for _, fact := range facts {
		vector, err := s.embedder.Embed(ctx, fact.Content)
		if err != nil {
			return goerr.Wrap(model.ErrStoreUnavailable, "failed to embed fact batch",
				goerr.V("fact", fact.ID), goerr.V("count", len(facts)), goerr.V("cause", err.Error()))
		}
		entries = append(entries, &interfaces.VectorEntry{ID: string(fact.ID), Vector: vector, Fact: fact})
	}

	if err := s.index.UpsertBatch(ctx, s.namespace(scope.Character()), entries); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to store fact batch",
			goerr.V("count", len(facts)), goerr.V("cause", err.Error()))
	}

	return nil
}

// Search performs semantic retrieval restricted server-side to the allowed
// tags. Passing nil for allowed uses the scope's full tag set. An empty
// result is not an error.
func (s *Store) Search(ctx context.Context, scope model.Scope, query string, allowed []model.Tag, limit int, minScore float64) ([]*interfaces.VectorHit, error) {
	if allowed == nil {
		allowed = scope.AllowedTags()
	}
	for _, tag := range allowed {
		if err := checkTag(scope, tag); err != nil {
			return nil, err
		}
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to embed query",
			goerr.V("cause", err.Error()))
	}

	hits, err := s.index.Search(ctx, s.namespace(scope.Character()), vector, allowed, limit, minScore)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to search facts",
			goerr.V("character", scope.Character()), goerr.V("cause", err.Error()))
	}

	return hits, nil
}
