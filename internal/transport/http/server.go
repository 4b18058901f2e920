package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/cache"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/firebaseapp"
	"bookshelf/internal/handler"
	"bookshelf/internal/queue"
	"bookshelf/internal/redis"
	"bookshelf/internal/repository"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
	"bookshelf/internal/tracing"
	"bookshelf/internal/validation"
)

// Run wires the API server and serves until SIGINT or SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	shutdownTracing, err := tracing.Setup(ctx, "bookshelf-api", cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// 2. Firebase and the document store
	fb, err := firebaseapp.New(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := database.OpenStore(ctx, cfg, fb)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer store.Close()

	// 3. Redis is optional: without it events are not published and
	// searches are not cached.
	var publisher queue.Publisher
	var searcher catalog.Searcher = catalog.NewClient(cfg.AladinBaseURL, cfg.AladinTTBKey, cfg.AladinRateLimit)

	redisClient, err := redis.NewClient(cfg.RedisURL, 0)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		log.Printf("[Server] Redis unavailable, running without events and search cache: %v", err)
	} else {
		publisher = queue.NewPublisher(redisClient.Client)
		searcher = catalog.NewCachedClient(searcher, cache.NewSearchCache(redisClient.Client), cfg.SearchCacheTTL)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(store)
	bookRepo := repository.NewBookRepository(store)
	userBookRepo := repository.NewUserBookRepository(store)
	bookmarkRepo := repository.NewBookmarkRepository(store)
	likeRepo := repository.NewLikeRepository(store)
	followerRepo := repository.NewFollowerRepository(store)
	statsRepo := repository.NewBookStatsRepository(store)

	// 5. Services
	verifier, err := firebaseapp.NewVerifier(ctx, fb)
	if err != nil {
		return err
	}
	mediaService := newMediaService(ctx, cfg, fb)
	validator := validation.New()

	authService := service.NewAuthService(verifier, userRepo, cfg)
	userService := service.NewUserService(userRepo, followerRepo, mediaService, validator, publisher)
	libraryService := service.NewLibraryService(bookRepo, userBookRepo, userRepo, followerRepo, likeRepo, searcher, validator, publisher)
	socialService := service.NewSocialService(likeRepo, followerRepo, bookmarkRepo, userBookRepo, userRepo, bookRepo, searcher, publisher)
	statsService := service.NewStatsService(statsRepo, bookRepo)

	// 6. Router
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService),
		UserHandler:    handler.NewUserHandler(userService, authService),
		LibraryHandler: handler.NewLibraryHandler(libraryService),
		SocialHandler:  handler.NewSocialHandler(socialService),
		StatsHandler:   handler.NewStatsHandler(statsService),
		CatalogHandler: handler.NewCatalogHandler(searcher),
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDeadline)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newMediaService returns nil when no object store can be built, which
// disables photo uploads.
func newMediaService(ctx context.Context, cfg *config.Config, fb *firebaseapp.App) *service.MediaService {
	var (
		objects storage.ObjectStore
		err     error
	)
	switch cfg.StorageBackend {
	case config.StorageR2:
		objects, err = storage.NewR2Store(ctx, cfg)
	case config.StorageFirebase:
		objects, err = storage.NewFirebaseStore(ctx, fb)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		log.Printf("[Server] Image uploads disabled: %v", err)
		return nil
	}
	return service.NewMediaService(objects)
}
