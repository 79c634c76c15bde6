package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/model"
	"google.golang.org/api/iterator"
)

// chunkDoc is the Firestore document representation of
// model.EmbeddingChunk. Embedding is stored as firestore.Vector32 so
// that FindNearest vector search works.
type chunkDoc struct {
	ID        model.ChunkID      `firestore:"ID"`
	NoteID    model.NoteID       `firestore:"NoteID"`
	UserID    string             `firestore:"UserID"`
	Content   string             `firestore:"Content"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toChunkDoc(c *model.EmbeddingChunk) *chunkDoc {
	doc := &chunkDoc{
		ID:        c.ID,
		NoteID:    c.NoteID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if len(c.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(c.Embedding)
	}
	return doc
}

func fromChunkDoc(d *chunkDoc) *model.EmbeddingChunk {
	c := &model.EmbeddingChunk{
		ID:        d.ID,
		NoteID:    d.NoteID,
		UserID:    d.UserID,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		c.Embedding = []float32(d.Embedding)
	}
	return c
}

type chunkRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newChunkRepository(client *firestore.Client) *chunkRepository {
	return &chunkRepository{client: client}
}

func (r *chunkRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "chunks")
}

func (r *chunkRepository) Insert(ctx context.Context, chunks []*model.EmbeddingChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()

	// BulkWriter handles the 500 write batching limit internally
	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, c := range chunks {
		stored := *c
		if stored.ID == "" {
			stored.ID = model.NewChunkID()
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}

		docRef := r.collection().Doc(string(stored.ID))
		if _, err := bulkWriter.Set(docRef, toChunkDoc(&stored)); err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("chunkID", stored.ID))
		}
	}

	bulkWriter.Flush()

	return nil
}

func (r *chunkRepository) DeleteByNote(ctx context.Context, noteID model.NoteID) error {
	iter := r.collection().Where("NoteID", "==", string(noteID)).Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate chunks for deletion", goerr.V("noteID", noteID))
		}
		refs = append(refs, doc.Ref)
	}

	if len(refs) == 0 {
		return nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, ref := range refs {
		if _, err := bulkWriter.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer", goerr.V("noteID", noteID))
		}
	}

	bulkWriter.Flush()

	return nil
}

func (r *chunkRepository) ExistsForNote(ctx context.Context, noteID model.NoteID) (bool, error) {
	iter := r.collection().
		Where("NoteID", "==", string(noteID)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to query chunks", goerr.V("noteID", noteID))
	}

	return true, nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.EmbeddingChunk, error) {
	// The owner filter is part of the query so ranking never sees
	// another user's chunks
	vq := r.collection().
		Where("UserID", "==", userID).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	chunks := make([]*model.EmbeddingChunk, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunk vector search results", goerr.V("userID", userID))
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk from vector search")
		}

		chunks = append(chunks, fromChunkDoc(&d))
	}

	return chunks, nil
}
