package core

import (
	"context"
	"log"
	"sync"
	"time"

	"logbook/internal/messaging/producer"
	"logbook/internal/models"
)

const (
	publishTimeout = 10 * time.Second

	// maxBufferedBatches bounds the buffer while the flush channel is full
	maxBufferedBatches = 4
)

// BatchProcessor buffers lifecycle events and publishes them in batches so
// that request handlers never wait on the message queue
type BatchProcessor struct {
	batchSize    int
	batchTimeout time.Duration
	logger       *log.Logger
	producer     producer.Producer

	// Buffers
	buffer      []*models.LogEvent
	maxBuffered int
	bufferMutex sync.Mutex
	closed      bool
	flushChan   chan []*models.LogEvent

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatchProcessor creates a new batch processor and starts its goroutines
func NewBatchProcessor(batchSize int, batchTimeout time.Duration, flushChannelBuffer int,
	p producer.Producer, logger *log.Logger) *BatchProcessor {

	if batchSize <= 0 {
		batchSize = 50
	}
	if batchTimeout <= 0 {
		batchTimeout = 500 * time.Millisecond
	}
	if flushChannelBuffer <= 0 {
		flushChannelBuffer = 16
	}

	ctx, cancel := context.WithCancel(context.Background())

	bp := &BatchProcessor{
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		logger:       logger,
		producer:     p,
		buffer:       make([]*models.LogEvent, 0, batchSize),
		maxBuffered:  batchSize * maxBufferedBatches,
		flushChan:    make(chan []*models.LogEvent, flushChannelBuffer),
		ctx:          ctx,
		cancel:       cancel,
	}

	bp.wg.Add(2)
	go bp.batchTimer()
	go bp.batchPublisher()

	return bp
}

// Submit adds an event to the buffer. Events submitted after Close are dropped.
func (bp *BatchProcessor) Submit(ev *models.LogEvent) {
	bp.bufferMutex.Lock()
	if bp.closed {
		bp.bufferMutex.Unlock()
		return
	}
	bp.buffer = append(bp.buffer, ev)
	shouldFlush := len(bp.buffer) >= bp.batchSize
	bp.bufferMutex.Unlock()

	if shouldFlush {
		bp.flushIfNeeded()
	}
}

// batchTimer handles periodic flushing
func (bp *BatchProcessor) batchTimer() {
	defer bp.wg.Done()

	ticker := time.NewTicker(bp.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bp.flushIfNeeded()
		case <-bp.ctx.Done():
			return
		}
	}
}

// batchPublisher hands batches to the producer
func (bp *BatchProcessor) batchPublisher() {
	defer bp.wg.Done()

	for {
		select {
		case batch := <-bp.flushChan:
			bp.publish(batch)
		case <-bp.ctx.Done():
			// Drain queued batches, then whatever is still buffered
			for drained := false; !drained; {
				select {
				case batch := <-bp.flushChan:
					bp.publish(batch)
				default:
					drained = true
				}
			}
			bp.bufferMutex.Lock()
			remaining := bp.buffer
			bp.buffer = nil
			bp.bufferMutex.Unlock()
			bp.publish(remaining)
			return
		}
	}
}

// flushIfNeeded moves the buffer onto the flush channel if it has entries
func (bp *BatchProcessor) flushIfNeeded() {
	bp.bufferMutex.Lock()
	if len(bp.buffer) == 0 {
		bp.bufferMutex.Unlock()
		return
	}

	batch := make([]*models.LogEvent, len(bp.buffer))
	copy(batch, bp.buffer)
	bp.buffer = bp.buffer[:0]
	bp.bufferMutex.Unlock()

	select {
	case bp.flushChan <- batch:
	default:
		// Flush channel full: put it back, dropping the oldest past the cap
		bp.bufferMutex.Lock()
		bp.buffer = append(batch, bp.buffer...)
		dropped := len(bp.buffer) - bp.maxBuffered
		if dropped > 0 {
			bp.buffer = append(bp.buffer[:0], bp.buffer[dropped:]...)
		}
		bp.bufferMutex.Unlock()

		if dropped > 0 {
			bp.logger.Printf("Event buffer full, dropped %d oldest events", dropped)
		}
	}
}

// publish writes one batch. Failures are logged and the batch is dropped.
func (bp *BatchProcessor) publish(batch []*models.LogEvent) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if len(batch) == 1 {
		if err := bp.producer.Publish(ctx, batch[0]); err != nil {
			bp.logger.Printf("Event publish failed, dropping event %s: %v", batch[0].EventID, err)
		}
		return
	}

	if err := bp.producer.PublishBatch(ctx, batch); err != nil {
		bp.logger.Printf("Event batch publish failed, dropping %d events: %v", len(batch), err)
	}
}

// Close stops the timers and publishes everything still buffered
func (bp *BatchProcessor) Close() {
	bp.bufferMutex.Lock()
	bp.closed = true
	bp.bufferMutex.Unlock()

	bp.cancel()
	bp.wg.Wait()
}
