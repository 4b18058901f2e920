package docstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"bookshelf/internal/docstore"
)

// setupTestFirestore talks to the Firestore emulator. The client picks the
// emulator up from FIRESTORE_EMULATOR_HOST; without it the test is skipped so
// it never touches a real project.
func setupTestFirestore(t *testing.T) *docstore.FirestoreStore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping firestore docstore test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := firestore.NewClient(ctx, "bookshelf-test")
	if err != nil {
		t.Skipf("Firestore emulator not available, skipping test: %v", err)
	}
	return docstore.NewFirestoreStore(client)
}

func TestFirestoreStore_Backend(t *testing.T) {
	store := setupTestFirestore(t)
	t.Cleanup(func() { store.Close() })

	runBackendSuite(t, store, fmt.Sprintf("test_%d_", time.Now().UnixNano()))
}

func TestFirestoreStore_NewIDIsUnique(t *testing.T) {
	store := setupTestFirestore(t)
	defer store.Close()

	a, b := store.NewID("entries"), store.NewID("entries")
	if a == "" || a == b {
		t.Errorf("NewID returned %q and %q", a, b)
	}
}
