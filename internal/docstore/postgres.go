package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pgTimeLayout is fixed width so that stored timestamps sort lexically in
// chronological order.
const pgTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const pgSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data jsonb_path_ops);
`

// PostgresStore keeps every document as a JSONB row keyed by
// (collection, id). Equality filters are pushed down with @>; ordering,
// range filters and limits are applied in process.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pgSchema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

type pgRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	var row pgRow
	err := s.db.GetContext(ctx, &row, `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return row.snapshot()
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	containment := map[string]interface{}{}
	for _, f := range q.Filters {
		if f.Op == OpEqual {
			setNested(containment, f.Path, encodePG(normalize(f.Value)))
		}
	}
	filter, err := json.Marshal(containment)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	var rows []pgRow
	err = s.db.SelectContext(ctx, &rows,
		`SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb`,
		q.Collection, string(filter))
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	snaps := make([]*Snapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.snapshot()
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	pgq := q
	pgq.Filters = make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		pgq.Filters[i] = Filter{Path: f.Path, Op: f.Op, Value: encodePG(normalize(f.Value))}
	}
	return evaluate(pgq, snaps), nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	return s.commit(ctx, []writeOp{{kind: opSet, collection: collection, id: id, fields: fields}})
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	return s.commit(ctx, []writeOp{{kind: opCreate, collection: collection, id: id, fields: fields}})
}

func (s *PostgresStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	id := s.NewID(collection)
	if err := s.Create(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	return s.commit(ctx, []writeOp{{kind: opUpdate, collection: collection, id: id, updates: updates}})
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return s.commit(ctx, []writeOp{{kind: opDelete, collection: collection, id: id}})
}

func (s *PostgresStore) NewID(string) string {
	return newAutoID()
}

func (s *PostgresStore) Batch() Batch {
	return &opBatch{commit: s.commit}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// commit applies ops in one transaction. Server timestamps use the database
// clock; updates lock the row before merging.
func (s *PostgresStore) commit(ctx context.Context, ops []writeOp) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var now time.Time
	if err := tx.GetContext(ctx, &now, `SELECT clock_timestamp()`); err != nil {
		return fmt.Errorf("read server clock: %w", err)
	}
	now = now.UTC()

	for _, op := range ops {
		if err := s.apply(ctx, tx, op, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) apply(ctx context.Context, tx *sqlx.Tx, op writeOp, now time.Time) error {
	switch op.kind {
	case opCreate:
		data, err := marshalPG(resolveSentinels(normalizeMap(op.fields), nil, now))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
			op.collection, op.id, data)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%s/%s: %w", op.collection, op.id, ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}

	case opSet:
		data, err := marshalPG(resolveSentinels(normalizeMap(op.fields), nil, now))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
		`, op.collection, op.id, data)
		if err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}

	case opUpdate:
		var row pgRow
		err := tx.GetContext(ctx, &row,
			`SELECT id, data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			op.collection, op.id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", op.collection, op.id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock document: %w", err)
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(row.Data, &doc); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		data, err := marshalPG(applyUpdates(doc, op.updates, now))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET data = $3::jsonb WHERE collection = $1 AND id = $2`,
			op.collection, op.id, data)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}

	case opDelete:
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, op.collection, op.id)
		if err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
	}
	return nil
}

func (r pgRow) snapshot() (*Snapshot, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", r.ID, err)
	}
	return &Snapshot{ID: r.ID, Data: data}, nil
}

func marshalPG(doc map[string]interface{}) (string, error) {
	b, err := json.Marshal(encodePG(doc))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

// encodePG rewrites time values into the fixed-width layout. Numbers come
// back from JSON as float64, which DataTo converts as needed.
func encodePG(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(pgTimeLayout)
	case int64:
		return float64(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = encodePG(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = encodePG(e)
		}
		return out
	}
	return v
}

func setNested(m map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		child, ok := m[p].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			m[p] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = value
}
