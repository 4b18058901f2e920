package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Writes are applied under a single lock,
// so every batch is atomic and isolated. Its server clock is strictly
// increasing with microsecond resolution.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]map[string]interface{}
	clock time.Time

	readErr    error
	batchFault *batchFault
}

type batchFault struct {
	afterOps int
	err      error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]map[string]interface{})}
}

// FailReads makes every Get and Query return err until called with nil.
func (m *MemoryStore) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailNextBatch makes the next batch commit fail with err after afterOps of
// its writes were staged. Nothing from that batch becomes visible. A nil err
// clears a pending fault.
func (m *MemoryStore) FailNextBatch(afterOps int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.batchFault = nil
		return
	}
	m.batchFault = &batchFault{afterOps: afterOps, err: err}
}

func (m *MemoryStore) now() time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(m.clock) {
		now = m.clock.Add(time.Microsecond)
	}
	m.clock = now
	return now
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Snapshot{ID: id, Data: cloneMap(doc)}, nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	coll := m.docs[q.Collection]
	all := make([]*Snapshot, 0, len(coll))
	for id, doc := range coll {
		all = append(all, &Snapshot{ID: id, Data: doc})
	}
	result := evaluate(q, all)
	for i, s := range result {
		result[i] = &Snapshot{ID: s.ID, Data: cloneMap(s.Data)}
	}
	return result, nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	return m.commit(ctx, []writeOp{{kind: opSet, collection: collection, id: id, fields: fields}}, false)
}

func (m *MemoryStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	return m.commit(ctx, []writeOp{{kind: opCreate, collection: collection, id: id, fields: fields}}, false)
}

func (m *MemoryStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	id := m.NewID(collection)
	if err := m.Create(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	return m.commit(ctx, []writeOp{{kind: opUpdate, collection: collection, id: id, updates: updates}}, false)
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return m.commit(ctx, []writeOp{{kind: opDelete, collection: collection, id: id}}, false)
}

func (m *MemoryStore) NewID(string) string {
	return newAutoID()
}

func (m *MemoryStore) Batch() Batch {
	return &opBatch{commit: func(ctx context.Context, ops []writeOp) error {
		return m.commit(ctx, ops, true)
	}}
}

func (m *MemoryStore) Close() error {
	return nil
}

type docKey struct {
	collection string
	id         string
}

// commit stages every op against an overlay and only publishes the overlay
// when all ops succeeded.
func (m *MemoryStore) commit(ctx context.Context, ops []writeOp, batch bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var fault *batchFault
	if batch && m.batchFault != nil {
		fault, m.batchFault = m.batchFault, nil
	}

	now := m.now()
	staged := make(map[docKey]map[string]interface{})
	order := make([]docKey, 0, len(ops))

	current := func(k docKey) (map[string]interface{}, bool) {
		if doc, ok := staged[k]; ok {
			return doc, doc != nil
		}
		doc, ok := m.docs[k.collection][k.id]
		return doc, ok
	}

	for i, op := range ops {
		if fault != nil && i == fault.afterOps {
			return fault.err
		}
		k := docKey{collection: op.collection, id: op.id}
		prev, exists := current(k)

		switch op.kind {
		case opCreate:
			if exists {
				return fmt.Errorf("%s/%s: %w", op.collection, op.id, ErrAlreadyExists)
			}
			staged[k] = resolveSentinels(normalizeMap(op.fields), nil, now)
		case opSet:
			staged[k] = resolveSentinels(normalizeMap(op.fields), nil, now)
		case opUpdate:
			if !exists {
				return fmt.Errorf("%s/%s: %w", op.collection, op.id, ErrNotFound)
			}
			staged[k] = applyUpdates(prev, op.updates, now)
		case opDelete:
			staged[k] = nil
		}
		order = append(order, k)
	}
	if fault != nil && fault.afterOps >= len(ops) {
		return fault.err
	}

	for _, k := range order {
		doc := staged[k]
		if doc == nil {
			delete(m.docs[k.collection], k.id)
			continue
		}
		coll, ok := m.docs[k.collection]
		if !ok {
			coll = make(map[string]map[string]interface{})
			m.docs[k.collection] = coll
		}
		coll[k.id] = doc
	}
	return nil
}

// newAutoID returns a 20 character key in the style of Firestore auto IDs.
func newAutoID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
