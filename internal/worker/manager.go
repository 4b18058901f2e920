package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"bookshelf/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
	DefaultClaimIdle    = time.Minute

	readRetryDelay = time.Second
)

// ManagerConfig tunes the stats consumers.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64         // messages per XREADGROUP
	BlockTimeout time.Duration // how long one read waits for new events
	ClaimIdle    time.Duration // unacked age after which another worker takes a message over

	// ConsumerPrefix names this process inside the consumer group. Two
	// processes must not share one, or they would steal each other's
	// pending messages on restart. Defaults to the hostname.
	ConsumerPrefix string
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
		ClaimIdle:    DefaultClaimIdle,
	}
}

// Manager runs the goroutines that drain the library stream into bookStats.
type Manager struct {
	consumer queue.Consumer
	handler  *Handler
	cfg      ManagerConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = DefaultClaimIdle
	}
	if cfg.ConsumerPrefix == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "local"
		}
		cfg.ConsumerPrefix = host
	}

	return &Manager{consumer: consumer, handler: handler, cfg: cfg}
}

// Start creates the consumer group if needed and launches the workers.
// It returns once they are running; Stop waits for them to finish.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(ctx, queue.StreamLibrary, queue.ConsumerGroupStats); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.cfg.WorkerCount; i++ {
		w := &statsWorker{
			id:       i,
			consumer: fmt.Sprintf("stats-%s-%d", m.cfg.ConsumerPrefix, i),
			m:        m,
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.run(ctx)
		}()
	}

	log.Printf("[Manager] Started %d workers: stream=%s group=%s",
		m.cfg.WorkerCount, queue.StreamLibrary, queue.ConsumerGroupStats)
	return nil
}

// Stop cancels the workers and blocks until each has returned.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] All workers stopped")
}

type statsWorker struct {
	id       int
	consumer string
	m        *Manager
}

func (w *statsWorker) run(ctx context.Context) {
	// Messages this consumer took before a crash come first.
	for ctx.Err() == nil {
		pending, err := w.m.consumer.ReadPending(ctx, queue.StreamLibrary, queue.ConsumerGroupStats, w.consumer, w.m.cfg.BatchSize)
		if err != nil || len(pending) == 0 {
			break
		}
		log.Printf("[Worker-%d] Recovering %d pending messages", w.id, len(pending))
		w.process(ctx, pending)
	}

	for ctx.Err() == nil {
		messages, err := w.m.consumer.Read(ctx, queue.StreamLibrary, queue.ConsumerGroupStats,
			w.consumer, w.m.cfg.BatchSize, w.m.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[Worker-%d] Read FAILED: %v", w.id, err)
			select {
			case <-ctx.Done():
			case <-time.After(readRetryDelay):
			}
			continue
		}
		if len(messages) > 0 {
			w.process(ctx, messages)
			continue
		}
		// Idle: pick up what a vanished consumer left behind.
		claimed, err := w.m.consumer.Claim(ctx, queue.StreamLibrary, queue.ConsumerGroupStats,
			w.consumer, w.m.cfg.ClaimIdle, w.m.cfg.BatchSize)
		if err != nil {
			log.Printf("[Worker-%d] Claim FAILED: %v", w.id, err)
			continue
		}
		if len(claimed) > 0 {
			w.process(ctx, claimed)
		}
	}
	log.Printf("[Worker-%d] Stopped", w.id)
}

// process handles one batch and acks every message in it. Recomputation is
// idempotent and the next event for the same book repairs a failed one, so
// failures are logged rather than left pending.
func (w *statsWorker) process(ctx context.Context, messages []queue.Message) {
	ids := make([]string, 0, len(messages))
	for _, event := range coalesce(messages) {
		if err := w.m.handler.HandleEvent(ctx, event); err != nil {
			log.Printf("[Worker-%d] HandleEvent FAILED: type=%s isbn=%s user=%s err=%v",
				w.id, event.Type, event.ISBN, event.UserID, err)
		}
	}
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	if err := w.m.consumer.Ack(ctx, queue.StreamLibrary, queue.ConsumerGroupStats, ids...); err != nil {
		log.Printf("[Worker-%d] Ack FAILED: count=%d err=%v", w.id, len(ids), err)
	}
}

// coalesce drops events that would repeat a recomputation already queued in
// the same batch: one per book for library events, one per user for profile
// changes. Order of first appearance is kept.
func coalesce(messages []queue.Message) []queue.LibraryEvent {
	seen := make(map[string]bool, len(messages))
	events := make([]queue.LibraryEvent, 0, len(messages))
	for _, msg := range messages {
		key := "isbn:" + msg.Event.ISBN
		if msg.Event.Type == queue.EventProfileUpdated {
			key = "user:" + msg.Event.UserID
		} else if msg.Event.ISBN == "" {
			// Let the handler reject it.
			key = "msg:" + msg.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		events = append(events, msg.Event)
	}
	return events
}
