package docstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"bookshelf/internal/docstore"
)

// setupTestPostgres connects with the same DB_* variables the server reads.
// The test is skipped when they are unset or the database is unreachable.
func setupTestPostgres(t *testing.T) *docstore.PostgresStore {
	t.Helper()
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set, skipping postgres docstore test")
	}
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), port, sslMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres not available, skipping test: %v", err)
	}

	store := docstore.NewPostgresStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return store
}

func TestPostgresStore_Backend(t *testing.T) {
	store := setupTestPostgres(t)
	prefix := fmt.Sprintf("test_%d_", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx := context.Background()
		for _, col := range []string{"entries", "likes", "ordered"} {
			snaps, err := store.Query(ctx, docstore.From(prefix+col))
			if err != nil {
				t.Logf("cleanup %s: %v", col, err)
				continue
			}
			for _, s := range snaps {
				_ = store.Delete(ctx, prefix+col, s.ID)
			}
		}
		store.Close()
	})

	runBackendSuite(t, store, prefix)
}

func TestPostgresStore_EnsureSchemaIsRepeatable(t *testing.T) {
	store := setupTestPostgres(t)
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
}
