package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"bookshelf/internal/config"
	"bookshelf/internal/docstore"
	"bookshelf/internal/firebaseapp"
)

// Connect opens the PostgreSQL database used by the postgres docstore backend.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

// OpenStore builds the document store selected by cfg.DocstoreBackend,
// wrapped with tracing. fb is required for the firestore backend only.
func OpenStore(ctx context.Context, cfg *config.Config, fb *firebaseapp.App) (docstore.Store, error) {
	var store docstore.Store

	switch cfg.DocstoreBackend {
	case config.BackendFirestore:
		if fb == nil {
			return nil, fmt.Errorf("firestore backend requires firebase credentials")
		}
		client, err := fb.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		store = docstore.NewFirestoreStore(client)

	case config.BackendPostgres:
		db, err := Connect(cfg)
		if err != nil {
			return nil, err
		}
		pg := docstore.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		store = pg

	case config.BackendMemory:
		log.Println("[Docstore] Using in-memory store; data is lost on restart")
		store = docstore.NewMemoryStore()

	default:
		return nil, fmt.Errorf("unknown docstore backend %q", cfg.DocstoreBackend)
	}

	log.Printf("[Docstore] Backend ready: %s", cfg.DocstoreBackend)
	return docstore.WithTracing(store), nil
}
