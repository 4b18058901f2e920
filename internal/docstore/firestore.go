package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the production Store backed by Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an existing Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	return &Snapshot{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Path, f.Op, f.Value)
	}
	for _, o := range q.Orders {
		dir := firestore.Asc
		if o.Dir == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Path, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	var out []*Snapshot
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapFirestoreError(err)
		}
		out = append(out, &Snapshot{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestoreFields(fields))
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	_, err := s.client.Collection(collection).Doc(id).Create(ctx, toFirestoreFields(fields))
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestoreFields(fields))
	if err != nil {
		return "", mapFirestoreError(err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates))
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return mapFirestoreError(err)
}

func (s *FirestoreStore) NewID(collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

// Batch commits its writes inside a Firestore transaction, which applies all
// of them or none.
func (s *FirestoreStore) Batch() Batch {
	return &opBatch{commit: s.commit}
}

func (s *FirestoreStore) commit(ctx context.Context, ops []writeOp) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range ops {
			ref := s.client.Collection(op.collection).Doc(op.id)
			var err error
			switch op.kind {
			case opCreate:
				err = tx.Create(ref, toFirestoreFields(op.fields))
			case opSet:
				err = tx.Set(ref, toFirestoreFields(op.fields))
			case opUpdate:
				err = tx.Update(ref, toFirestoreUpdates(op.updates))
			case opDelete:
				err = tx.Delete(ref)
			}
			if err != nil {
				return fmt.Errorf("stage %s/%s: %w", op.collection, op.id, err)
			}
		}
		return nil
	})
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func toFirestoreFields(fields Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = toFirestoreValue(v)
	}
	return out
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, len(updates))
	for i, u := range updates {
		out[i] = firestore.Update{Path: u.Path, Value: toFirestoreValue(u.Value)}
	}
	return out
}

func toFirestoreValue(v interface{}) interface{} {
	switch t := v.(type) {
	case serverTimestamp:
		return firestore.ServerTimestamp
	case increment:
		return firestore.Increment(t.n)
	case Fields:
		return toFirestoreFields(t)
	case map[string]interface{}:
		return toFirestoreFields(t)
	}
	return v
}

func mapFirestoreError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}
