package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/firebaseapp"
	"bookshelf/internal/queue"
	"bookshelf/internal/redis"
	"bookshelf/internal/repository"
	"bookshelf/internal/tracing"
	"bookshelf/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

// run consumes library events and keeps bookStats up to date until SIGINT
// or SIGTERM.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTracing, err := tracing.Setup(ctx, "bookshelf-worker", cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	var fb *firebaseapp.App
	if cfg.DocstoreBackend == config.BackendFirestore {
		if fb, err = firebaseapp.New(ctx, cfg); err != nil {
			return err
		}
	}
	store, err := database.OpenStore(ctx, cfg, fb)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer store.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.WorkerCount)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		return err
	}

	userBooks := repository.NewUserBookRepository(store)
	users := repository.NewUserRepository(store)
	aggregator := worker.NewAggregator(userBooks, users, worker.NewStatsWriter(store))

	mgrCfg := worker.DefaultManagerConfig()
	mgrCfg.WorkerCount = cfg.WorkerCount
	mgrCfg.BatchSize = int64(cfg.WorkerBatchSize)

	manager := worker.NewManager(queue.NewConsumer(redisClient.Client), worker.NewHandler(aggregator, userBooks), mgrCfg)
	if err := manager.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	manager.Stop()
	return nil
}
