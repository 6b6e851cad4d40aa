package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps records in Cloud Firestore. Each collection is a
// document under the root collection holding its records in a "records"
// subcollection: <root>/<collection>/records/<id>.
type FirestoreStore struct {
	client *firestore.Client
	root   string
}

// NewFirestoreStore initializes a Firestore client from the app.
func NewFirestoreStore(ctx context.Context, app *firebase.App, root string) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore (root: %s)", root)

	return &FirestoreStore{
		client: client,
		root:   root,
	}, nil
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) records(collection string) *firestore.CollectionRef {
	return s.client.Collection(s.root).Doc(collection).Collection("records")
}

type documentSnapshot struct {
	doc *firestore.DocumentSnapshot
}

func (s documentSnapshot) Key() string { return s.doc.Ref.ID }

func (s documentSnapshot) DataTo(v interface{}) error {
	return s.doc.DataTo(v)
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string, v interface{}) error {
	doc, err := s.records(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	if err := doc.DataTo(v); err != nil {
		return fmt.Errorf("failed to parse %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, v interface{}) error {
	if _, err := s.records(collection).Doc(id).Set(ctx, v); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if _, err := s.records(collection).Doc(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.records(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) NewID(ctx context.Context, collection string) (string, error) {
	return s.records(collection).NewDoc().ID, nil
}

func (s *FirestoreStore) All(ctx context.Context, collection string) ([]Snapshot, error) {
	return collect(s.records(collection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx), collection)
}

func (s *FirestoreStore) WhereEqual(ctx context.Context, collection, field string, value interface{}) ([]Snapshot, error) {
	return collect(s.records(collection).Where(field, "==", value).Documents(ctx), collection)
}

func (s *FirestoreStore) Increment(ctx context.Context, collection, id string, floor int64) (int64, error) {
	ref := s.records(collection).Doc(id)

	var next int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var counter struct {
			Value int64 `firestore:"value"`
		}
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if err := doc.DataTo(&counter); err != nil {
				return err
			}
		}

		next = nextCounter(counter.Value, floor)
		return tx.Set(ref, map[string]interface{}{"value": next})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s/%s: %w", collection, id, err)
	}
	return next, nil
}

func collect(iter *firestore.DocumentIterator, collection string) ([]Snapshot, error) {
	defer iter.Stop()

	var result []Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
		}
		result = append(result, documentSnapshot{doc: doc})
	}
	return result, nil
}
