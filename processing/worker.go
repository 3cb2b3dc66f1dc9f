package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"logbook/config"
	"logbook/internal/messaging/consumer"
	"logbook/internal/models"
	"logbook/storage/store"
)

// Worker drains lifecycle events from a consumer into the event journal in batches
type Worker struct {
	workerConfig       config.WorkerConfig
	batchTimeout       time.Duration // Parsed from workerConfig.BatchTimeout
	consumerRetryDelay time.Duration // Parsed from workerConfig.ConsumerRetryDelay
	writeTimeout       time.Duration // Parsed from workerConfig.WriteTimeout

	logger   *log.Logger
	journal  store.Journal
	consumer consumer.Consumer
}

// New creates a new Worker instance
func New(cfg config.WorkerConfig, logger *log.Logger, j store.Journal, c consumer.Consumer) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	batchTimeout, err := time.ParseDuration(cfg.BatchTimeout)
	if err != nil || batchTimeout <= 0 {
		logger.Printf("Warning: Invalid batch_timeout '%s', using default 1s", cfg.BatchTimeout)
		batchTimeout = 1 * time.Second
	}

	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil || writeTimeout <= 0 {
		logger.Printf("Warning: Invalid write_timeout '%s', using default 10s", cfg.WriteTimeout)
		writeTimeout = 10 * time.Second
	}

	return &Worker{
		workerConfig:       cfg,
		batchTimeout:       batchTimeout,
		consumerRetryDelay: consumerRetryDelay,
		writeTimeout:       writeTimeout,
		logger:             logger,
		journal:            j,
		consumer:           c,
	}
}

// Run starts the worker pool and blocks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting journal workers with concurrency: %d, BatchSize: %d, BatchTimeout: %s",
		w.workerConfig.Concurrency, w.workerConfig.BatchSize, w.batchTimeout)
	var wg sync.WaitGroup
	for i := 0; i < w.workerConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processEventsInBatch(ctx, workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Journal worker pool stopped.")
}

// processEventsInBatch is the main loop for a worker goroutine
func (w *Worker) processEventsInBatch(ctx context.Context, workerID int) {
	batch := make([]*models.LogEvent, 0, w.workerConfig.BatchSize)
	acks := make([]func(success bool), 0, w.workerConfig.BatchSize)
	batchTimer := time.NewTimer(0) // Start with stopped timer
	if !batchTimer.Stop() {
		select {
		case <-batchTimer.C:
		default:
		}
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if !batchTimer.Stop() {
			select {
			case <-batchTimer.C:
			default:
			}
		}

		w.processAndAckBatch(ctx, workerID, batch, acks)

		batch = make([]*models.LogEvent, 0, w.workerConfig.BatchSize)
		acks = make([]func(success bool), 0, w.workerConfig.BatchSize)
	}

	for {
		select {
		case <-ctx.Done():
			for _, ack := range acks {
				ack(false)
			}
			return

		case <-batchTimer.C:
			flush()

		default:
			consumeCtx, consumeCancel := context.WithTimeout(ctx, 100*time.Millisecond)
			ev, ack, err := w.consumer.Consume(consumeCtx)
			consumeCancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Printf("Worker %d: Consumer error: %v", workerID, err)
				select {
				case <-ctx.Done():
				case <-time.After(w.consumerRetryDelay):
				}
				continue
			}
			if ev == nil {
				continue
			}

			if len(batch) == 0 {
				batchTimer.Reset(w.batchTimeout)
			}
			batch = append(batch, ev)
			acks = append(acks, ack)

			if len(batch) >= w.workerConfig.BatchSize {
				flush()
			}
		}
	}
}

// processAndAckBatch journals the batch and acknowledges every message in it
func (w *Worker) processAndAckBatch(ctx context.Context, workerID int, batch []*models.LogEvent, acks []func(success bool)) {
	err := w.handleBatch(ctx, batch)
	if err != nil {
		w.logger.Printf("Worker %d: Batch failed: %v (nacking %d messages)", workerID, err, len(acks))
	}
	for _, ack := range acks {
		ack(err == nil)
	}
}

func (w *Worker) handleBatch(ctx context.Context, batch []*models.LogEvent) error {
	valid := make([]*models.LogEvent, 0, len(batch))
	for _, ev := range batch {
		if ev.EventID == "" || ev.EntryID == "" {
			w.logger.Printf("Skipping malformed event (type=%s, entry_id=%q)", ev.Type, ev.EntryID)
			continue
		}
		valid = append(valid, ev)
	}
	if len(valid) == 0 {
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	start := time.Now()
	added, err := w.journal.AppendEvents(writeCtx, valid)
	if err != nil {
		return fmt.Errorf("journal append failed: %w", err)
	}

	w.logger.Printf("Batch journaled: size=%d, new=%d, duplicates=%d, took=%v",
		len(valid), added, len(valid)-added, time.Since(start))
	return nil
}
