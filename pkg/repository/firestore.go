package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/kagemusha-ai/kagemusha/pkg/interfaces"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const (
	namespaceCollection = "namespaces"
	factCollectionHead  = "kb_"
	distanceField       = "vector_distance"
)

// Firestore implements interfaces.VectorIndex on Cloud Firestore. Every
// namespace maps to one collection; facts are keyed by their content hash so
// re-upserting identical text overwrites in place. The permission tag filter
// is a Where clause combined with FindNearest, so filtering happens inside
// the query, not on retrieved results.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a vector index backed by the given Firestore database.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client.
func (r *Firestore) Close() error {
	return r.client.Close()
}

type factDoc struct {
	Content   string             `firestore:"content"`
	Tag       string             `firestore:"tag"`
	Kind      string             `firestore:"kind"`
	Metadata  map[string]string  `firestore:"metadata,omitempty"`
	Embedding firestore.Vector32 `firestore:"embedding"`
	CreatedAt time.Time          `firestore:"created_at,serverTimestamp"`
}

func (r *Firestore) facts(namespace string) *firestore.CollectionRef {
	return r.client.Collection(factCollectionHead + namespace)
}

func (r *Firestore) EnsureNamespace(ctx context.Context, namespace string) error {
	_, err := r.client.Collection(namespaceCollection).Doc(namespace).Set(ctx, map[string]any{
		"created_at": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return goerr.Wrap(err, "failed to provision namespace", goerr.V("namespace", namespace))
	}
	return nil
}

func (r *Firestore) Upsert(ctx context.Context, namespace string, entry *interfaces.VectorEntry) error {
	if _, err := r.facts(namespace).Doc(entry.ID).Set(ctx, toDoc(entry)); err != nil {
		return goerr.Wrap(err, "failed to upsert fact",
			goerr.V("namespace", namespace), goerr.V("id", entry.ID))
	}
	return nil
}

// UpsertBatch writes all entries in one transaction: either every fact is
// stored or none is.
func (r *Firestore) UpsertBatch(ctx context.Context, namespace string, entries []*interfaces.VectorEntry) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, entry := range entries {
			if err := tx.Set(r.facts(namespace).Doc(entry.ID), toDoc(entry)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert fact batch",
			goerr.V("namespace", namespace), goerr.V("count", len(entries)))
	}
	return nil
}

func (r *Firestore) Search(ctx context.Context, namespace string, vector []float32, tags []model.Tag, limit int, minScore float64) ([]*interfaces.VectorHit, error) {
	tagValues := make([]any, 0, len(tags))
	for _, tag := range tags {
		tagValues = append(tagValues, string(tag))
	}

	// Cosine distance = 1 - similarity, so the relevance floor becomes a
	// distance ceiling.
	threshold := 1 - minScore

	query := r.facts(namespace).
		Where("tag", "in", tagValues).
		FindNearest("embedding", firestore.Vector32(vector), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{
				DistanceThreshold:   &threshold,
				DistanceResultField: distanceField,
			})

	iter := query.Documents(ctx)
	defer iter.Stop()

	var hits []*interfaces.VectorHit
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search facts", goerr.V("namespace", namespace))
		}

		var fd factDoc
		if err := doc.DataTo(&fd); err != nil {
			return nil, goerr.Wrap(err, "failed to decode fact", goerr.V("id", doc.Ref.ID))
		}

		score := 0.0
		if raw, err := doc.DataAt(distanceField); err == nil {
			if distance, ok := raw.(float64); ok {
				score = 1 - distance
			}
		}

		hits = append(hits, &interfaces.VectorHit{
			Fact: &model.Fact{
				ID:       model.FactID(doc.Ref.ID),
				Content:  fd.Content,
				Tag:      model.Tag(fd.Tag),
				Kind:     model.Kind(fd.Kind),
				Metadata: fd.Metadata,
			},
			Score: score,
		})
	}

	return hits, nil
}

func toDoc(entry *interfaces.VectorEntry) *factDoc {
	return &factDoc{
		Content:   entry.Fact.Content,
		Tag:       string(entry.Fact.Tag),
		Kind:      string(entry.Fact.Kind),
		Metadata:  entry.Fact.Metadata,
		Embedding: firestore.Vector32(entry.Vector),
	}
}
