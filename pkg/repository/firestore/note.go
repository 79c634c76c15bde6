package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// noteDoc is the Firestore document representation of model.Note
type noteDoc struct {
	ID        model.NoteID `firestore:"ID"`
	UserID    string       `firestore:"UserID"`
	Title     string       `firestore:"Title"`
	Body      string       `firestore:"Body"`
	CreatedAt time.Time    `firestore:"CreatedAt"`
	UpdatedAt time.Time    `firestore:"UpdatedAt"`
}

func toNoteDoc(n *model.Note) *noteDoc {
	return &noteDoc{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func fromNoteDoc(d *noteDoc) *model.Note {
	return &model.Note{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type noteRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newNoteRepository(client *firestore.Client) *noteRepository {
	return &noteRepository{client: client}
}

func (r *noteRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "notes")
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	now := time.Now().UTC()
	created := *note
	if created.ID == "" {
		created.ID = model.NewNoteID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toNoteDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create note", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *noteRepository) Get(ctx context.Context, id model.NoteID) (*model.Note, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "note not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get note", goerr.V("id", id))
	}

	var d noteDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal note", goerr.V("id", id))
	}

	return fromNoteDoc(&d), nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID string) ([]*model.Note, error) {
	iter := r.collection().
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	return collectNotes(iter)
}

func (r *noteRepository) List(ctx context.Context) ([]*model.Note, error) {
	iter := r.collection().
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	return collectNotes(iter)
}

func collectNotes(iter *firestore.DocumentIterator) ([]*model.Note, error) {
	notes := make([]*model.Note, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate notes")
		}

		var d noteDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal note")
		}

		notes = append(notes, fromNoteDoc(&d))
	}

	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, note *model.Note) (*model.Note, error) {
	docRef := r.collection().Doc(string(note.ID))

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "note not found", goerr.V("id", note.ID))
		}
		return nil, goerr.Wrap(err, "failed to get note", goerr.V("id", note.ID))
	}

	var d noteDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal note", goerr.V("id", note.ID))
	}

	updated := fromNoteDoc(&d)
	updated.Title = note.Title
	updated.Body = note.Body
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, toNoteDoc(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update note", goerr.V("id", note.ID))
	}

	return updated, nil
}

func (r *noteRepository) Delete(ctx context.Context, id model.NoteID) error {
	docRef := r.collection().Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "note not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get note", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete note", goerr.V("id", id))
	}

	return nil
}
