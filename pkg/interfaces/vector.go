package interfaces

import (
	"context"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
)

// VectorEntry is one fact with its embedding, addressed by the fact's
// content-hash ID.
type VectorEntry struct {
	ID     string
	Vector []float32
	Fact   *model.Fact
}

// VectorHit is one search result with its similarity score in [0,1],
// higher is more similar.
type VectorHit struct {
	Fact  *model.Fact
	Score float64
}

// VectorIndex is the shared vector store infrastructure. Isolation between
// characters is enforced by the permission filter inside Search, never by
// the callers post-filtering results.
type VectorIndex interface {
	// EnsureNamespace idempotently provisions a namespace.
	EnsureNamespace(ctx context.Context, namespace string) error

	// Upsert writes one entry; re-upserting the same ID overwrites in place.
	Upsert(ctx context.Context, namespace string, entry *VectorEntry) error

	// UpsertBatch writes entries as a single batch; if any write fails the
	// whole batch is reported as failed.
	UpsertBatch(ctx context.Context, namespace string, entries []*VectorEntry) error

	// Search returns up to limit hits whose tag is one of tags and whose
	// similarity is at least minScore, most similar first. The tag filter is
	// part of the query sent to the backend.
	Search(ctx context.Context, namespace string, vector []float32, tags []model.Tag, limit int, minScore float64) ([]*VectorHit, error)
}
