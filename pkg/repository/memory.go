package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-memory vector index for local play and tests. It applies
// the same query-time tag filtering contract as the Firestore backend.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*memoryEntry
}

type memoryEntry struct {
	vector []float32
	fact   *model.Fact
}

// NewMemory creates an empty in-memory vector index.
func NewMemory() *Memory {
	return &Memory{
		namespaces: make(map[string]map[string]*memoryEntry),
	}
}

func (r *Memory) EnsureNamespace(ctx context.Context, namespace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.namespaces[namespace]; !ok {
		r.namespaces[namespace] = make(map[string]*memoryEntry)
	}
	return nil
}

func (r *Memory) Upsert(ctx context.Context, namespace string, entry *interfaces.VectorEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ns, ok := r.namespaces[namespace]
	if !ok {
		return goerr.New("unknown namespace", goerr.V("namespace", namespace))
	}

	ns[entry.ID] = &memoryEntry{vector: entry.Vector, fact: entry.Fact}
	return nil
}

func (r *Memory) UpsertBatch(ctx context.Context, namespace string, entries []*interfaces.VectorEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ns, ok := r.namespaces[namespace]
	if !ok {
		return goerr.New("unknown namespace", goerr.V("namespace", namespace))
	}

	for _, entry := range entries {
		ns[entry.ID] = &memoryEntry{vector: entry.Vector, fact: entry.Fact}
	}
	return nil
}

func (r *Memory) Search(ctx context.Context, namespace string, vector []float32, tags []model.Tag, limit int, minScore float64) ([]*interfaces.VectorHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespaces[namespace]
	if !ok {
		return nil, goerr.New("unknown namespace", goerr.V("namespace", namespace))
	}

	allowed := make(map[model.Tag]struct{}, len(tags))
	for _, tag := range tags {
		allowed[tag] = struct{}{}
	}

	var hits []*interfaces.VectorHit
	for _, entry := range ns {
		if _, ok := allowed[entry.fact.Tag]; !ok {
			continue
		}
		score := cosineSimilarity(vector, entry.vector)
		if score < minScore {
			continue
		}
		hits = append(hits, &interfaces.VectorHit{Fact: entry.fact, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of entries stored under the namespace.
func (r *Memory) Count(namespace string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.namespaces[namespace])
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
