package interfaces

import (
	"context"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
)

// KnowledgeSearcher is the read side of the knowledge store as seen by an
// agent: permission-filtered semantic retrieval, nothing else.
type KnowledgeSearcher interface {
	Search(ctx context.Context, scope model.Scope, query string, allowed []model.Tag, limit int, minScore float64) ([]*VectorHit, error)
}

// History is the append-only conversation log shared by a room.
type History interface {
	Append(msg *model.Message)
}
