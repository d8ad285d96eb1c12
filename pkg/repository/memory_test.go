package repository_test

import (
	"context"
	"testing"

	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/repository"
	"github.com/m-mizutani/gt"
)

func entry(content string, tag model.Tag, vector []float32) *interfaces.VectorEntry {
	fact := model.NewFact(content, tag, model.KindFact)
	return &interfaces.VectorEntry{ID: string(fact.ID), Vector: vector, Fact: fact}
}

func TestMemoryRequiresNamespace(t *testing.T) {
	ctx := context.Background()
	index := repository.NewMemory()

	err := index.Upsert(ctx, "ns", entry("fact", model.TagPublic, []float32{1, 0}))
	gt.Error(t, err)

	_, err = index.Search(ctx, "ns", []float32{1, 0}, []model.Tag{model.TagPublic}, 3, 0)
	gt.Error(t, err)

	gt.NoError(t, index.EnsureNamespace(ctx, "ns"))
	gt.NoError(t, index.Upsert(ctx, "ns", entry("fact", model.TagPublic, []float32{1, 0})))
}

func TestMemorySearchRanking(t *testing.T) {
	ctx := context.Background()
	index := repository.NewMemory()
	gt.NoError(t, index.EnsureNamespace(ctx, "ns"))

	gt.NoError(t, index.UpsertBatch(ctx, "ns", []*interfaces.VectorEntry{
		entry("exact", model.TagPublic, []float32{1, 0}),
		entry("close", model.TagPublic, []float32{0.9, 0.1}),
		entry("orthogonal", model.TagPublic, []float32{0, 1}),
	}))

	hits, err := index.Search(ctx, "ns", []float32{1, 0}, []model.Tag{model.TagPublic}, 10, 0.5)
	gt.NoError(t, err)
	gt.Equal(t, len(hits), 2)
	gt.Equal(t, hits[0].Fact.Content, "exact")
	gt.Equal(t, hits[1].Fact.Content, "close")
	gt.True(t, hits[0].Score > hits[1].Score)
}

func TestMemorySearchTagFilter(t *testing.T) {
	ctx := context.Background()
	index := repository.NewMemory()
	gt.NoError(t, index.EnsureNamespace(ctx, "ns"))

	gt.NoError(t, index.UpsertBatch(ctx, "ns", []*interfaces.VectorEntry{
		entry("public fact", model.TagPublic, []float32{1, 0}),
		entry("doctor secret", model.PrivateTag("李医生"), []float32{1, 0}),
		entry("butler secret", model.PrivateTag("王管家"), []float32{1, 0}),
	}))

	hits, err := index.Search(ctx, "ns", []float32{1, 0},
		[]model.Tag{model.TagPublic, model.PrivateTag("李医生")}, 10, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(hits), 2)
	for _, hit := range hits {
		gt.NotEqual(t, hit.Fact.Content, "butler secret")
	}
}

func TestMemorySearchLimit(t *testing.T) {
	ctx := context.Background()
	index := repository.NewMemory()
	gt.NoError(t, index.EnsureNamespace(ctx, "ns"))

	gt.NoError(t, index.UpsertBatch(ctx, "ns", []*interfaces.VectorEntry{
		entry("a", model.TagPublic, []float32{1, 0}),
		entry("b", model.TagPublic, []float32{1, 0.1}),
		entry("c", model.TagPublic, []float32{1, 0.2}),
	}))

	hits, err := index.Search(ctx, "ns", []float32{1, 0}, []model.Tag{model.TagPublic}, 2, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(hits), 2)
}

func TestMemoryNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	index := repository.NewMemory()
	gt.NoError(t, index.EnsureNamespace(ctx, "a"))
	gt.NoError(t, index.EnsureNamespace(ctx, "b"))

	gt.NoError(t, index.Upsert(ctx, "a", entry("only in a", model.TagPublic, []float32{1, 0})))

	hits, err := index.Search(ctx, "b", []float32{1, 0}, []model.Tag{model.TagPublic}, 10, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(hits), 0)
	gt.Equal(t, index.Count("a"), 1)
	gt.Equal(t, index.Count("b"), 0)
}

func TestMemoryUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	index := repository.NewMemory()
	gt.NoError(t, index.EnsureNamespace(ctx, "ns"))

	e := entry("same content", model.TagPublic, []float32{1, 0})
	gt.NoError(t, index.Upsert(ctx, "ns", e))
	gt.NoError(t, index.Upsert(ctx, "ns", e))
	gt.Equal(t, index.Count("ns"), 1)
}
