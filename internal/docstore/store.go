// Package docstore is a small document-database abstraction. Documents live in
// named collections, are addressed by string keys, and hold a tree of fields.
// Backends: Firestore (production), Postgres JSONB (self-hosted) and an
// in-memory store for tests and local development.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	// ErrNotFound is returned by Get and Update when the document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned by Create when the document already exists.
	ErrAlreadyExists = errors.New("document already exists")
)

// Fields is the body of a document write.
type Fields map[string]interface{}

// Update sets a single field. Path may be dotted to reach into nested maps.
type Update struct {
	Path  string
	Value interface{}
}

// Store is the document store client every repository depends on.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	Query(ctx context.Context, q Query) ([]*Snapshot, error)

	// Set writes the whole document, creating or replacing it.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Create writes the document and fails with ErrAlreadyExists if it exists.
	Create(ctx context.Context, collection, id string, fields Fields) error
	// Add creates a document under a generated key and returns the key.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Update merges the named fields into an existing document.
	Update(ctx context.Context, collection, id string, updates []Update) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// NewID returns a fresh key for the collection without writing anything.
	NewID(collection string) string
	// Batch starts an atomic multi-document write.
	Batch() Batch

	Close() error
}

// Batch collects writes that are committed all together or not at all.
type Batch interface {
	Create(collection, id string, fields Fields) Batch
	Set(collection, id string, fields Fields) Batch
	Update(collection, id string, updates []Update) Batch
	Delete(collection, id string) Batch
	Commit(ctx context.Context) error
}

// Snapshot is a document read from the store.
type Snapshot struct {
	ID   string
	Data map[string]interface{}
}

// DataTo decodes the document into dst using `firestore` struct tags.
func (s *Snapshot) DataTo(dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "firestore",
		Result:     dst,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return dec.Decode(s.Data)
}

type serverTimestamp struct{}

// ServerTimestamp, used as a field value, is replaced by the store's clock at
// write time.
var ServerTimestamp interface{} = serverTimestamp{}

type increment struct {
	n int64
}

// Increment, used as a field value, atomically adds n to the stored number.
// A missing field is treated as zero.
func Increment(n int64) interface{} {
	return increment{n: n}
}

type opKind int

const (
	opCreate opKind = iota
	opSet
	opUpdate
	opDelete
)

type writeOp struct {
	kind       opKind
	collection string
	id         string
	fields     Fields
	updates    []Update
}

// opBatch records writes; each backend commits the recorded ops its own way.
type opBatch struct {
	ops    []writeOp
	commit func(ctx context.Context, ops []writeOp) error
}

func (b *opBatch) Create(collection, id string, fields Fields) Batch {
	b.ops = append(b.ops, writeOp{kind: opCreate, collection: collection, id: id, fields: fields})
	return b
}

func (b *opBatch) Set(collection, id string, fields Fields) Batch {
	b.ops = append(b.ops, writeOp{kind: opSet, collection: collection, id: id, fields: fields})
	return b
}

func (b *opBatch) Update(collection, id string, updates []Update) Batch {
	b.ops = append(b.ops, writeOp{kind: opUpdate, collection: collection, id: id, updates: updates})
	return b
}

func (b *opBatch) Delete(collection, id string) Batch {
	b.ops = append(b.ops, writeOp{kind: opDelete, collection: collection, id: id})
	return b
}

func (b *opBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	return b.commit(ctx, b.ops)
}
