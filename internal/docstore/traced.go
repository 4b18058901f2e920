package docstore

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing wraps a Store so every call is recorded as a span.
func WithTracing(s Store) Store {
	return &tracedStore{
		next:   s,
		tracer: otel.Tracer("bookshelf/docstore"),
	}
}

type tracedStore struct {
	next   Store
	tracer trace.Tracer
}

func (t *tracedStore) start(ctx context.Context, op, collection string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", op),
		attribute.String("db.collection", collection),
	)
	return t.tracer.Start(ctx, "docstore."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracedStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	ctx, span := t.start(ctx, "get", collection, attribute.String("db.document.id", id))
	snap, err := t.next.Get(ctx, collection, id)
	if errors.Is(err, ErrNotFound) {
		span.SetAttributes(attribute.Bool("db.document.found", false))
		span.End()
		return nil, err
	}
	finish(span, err)
	return snap, err
}

func (t *tracedStore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	ctx, span := t.start(ctx, "query", q.Collection,
		attribute.Int("db.query.filters", len(q.Filters)),
		attribute.Int("db.query.limit", q.Limit),
	)
	snaps, err := t.next.Query(ctx, q)
	span.SetAttributes(attribute.Int("db.query.results", len(snaps)))
	finish(span, err)
	return snaps, err
}

func (t *tracedStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	ctx, span := t.start(ctx, "set", collection, attribute.String("db.document.id", id))
	err := t.next.Set(ctx, collection, id, fields)
	finish(span, err)
	return err
}

func (t *tracedStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	ctx, span := t.start(ctx, "create", collection, attribute.String("db.document.id", id))
	err := t.next.Create(ctx, collection, id, fields)
	finish(span, err)
	return err
}

func (t *tracedStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	ctx, span := t.start(ctx, "add", collection)
	id, err := t.next.Add(ctx, collection, fields)
	span.SetAttributes(attribute.String("db.document.id", id))
	finish(span, err)
	return id, err
}

func (t *tracedStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	ctx, span := t.start(ctx, "update", collection,
		attribute.String("db.document.id", id),
		attribute.Int("db.update.fields", len(updates)),
	)
	err := t.next.Update(ctx, collection, id, updates)
	finish(span, err)
	return err
}

func (t *tracedStore) Delete(ctx context.Context, collection, id string) error {
	ctx, span := t.start(ctx, "delete", collection, attribute.String("db.document.id", id))
	err := t.next.Delete(ctx, collection, id)
	finish(span, err)
	return err
}

func (t *tracedStore) NewID(collection string) string {
	return t.next.NewID(collection)
}

func (t *tracedStore) Batch() Batch {
	return &tracedBatch{next: t.next.Batch(), tracer: t.tracer}
}

func (t *tracedStore) Close() error {
	return t.next.Close()
}

type tracedBatch struct {
	next   Batch
	tracer trace.Tracer
	ops    int
}

func (b *tracedBatch) Create(collection, id string, fields Fields) Batch {
	b.next.Create(collection, id, fields)
	b.ops++
	return b
}

func (b *tracedBatch) Set(collection, id string, fields Fields) Batch {
	b.next.Set(collection, id, fields)
	b.ops++
	return b
}

func (b *tracedBatch) Update(collection, id string, updates []Update) Batch {
	b.next.Update(collection, id, updates)
	b.ops++
	return b
}

func (b *tracedBatch) Delete(collection, id string) Batch {
	b.next.Delete(collection, id)
	b.ops++
	return b
}

func (b *tracedBatch) Commit(ctx context.Context) error {
	ctx, span := b.tracer.Start(ctx, "docstore.batch", trace.WithAttributes(
		attribute.String("db.operation", "batch"),
		attribute.Int("db.batch.ops", b.ops),
	))
	err := b.next.Commit(ctx)
	finish(span, err)
	return err
}
