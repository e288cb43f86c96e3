package learning

import (
	"log/slog"
	"sync"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/storage"
)

const (
	// eventQueueSize is the buffer size for the event queue.
	// If full, events are dropped (non-blocking).
	eventQueueSize = 1000

	// batchFlushSize is the number of events that triggers an immediate flush.
	batchFlushSize = 10

	// flushInterval is how often pending events are flushed.
	flushInterval = 50 * time.Millisecond
)

// Recorder persists dispatch records.
type Recorder interface {
	RecordDispatch(record storage.DispatchRecord) error
}

// Tracker records dispatches in the background with non-blocking writes.
type Tracker struct {
	recorder   Recorder
	logger     *slog.Logger
	eventQueue chan DispatchEvent
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewTracker creates a tracker and starts its background writer. Call Stop
// to flush and release it.
func NewTracker(r Recorder, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tracker{
		recorder:   r,
		logger:     logger,
		eventQueue: make(chan DispatchEvent, eventQueueSize),
		stopChan:   make(chan struct{}),
	}

	t.wg.Add(1)
	go t.processEvents()

	return t
}

// Track queues a dispatch event (non-blocking).
// If the queue is full, the event is dropped and a warning is logged.
// Without a recorder events are ignored.
func (t *Tracker) Track(event DispatchEvent) {
	if t.recorder == nil {
		return
	}

	select {
	case t.eventQueue <- event:
	default:
		t.logger.Warn("dispatch queue full, dropping event", "function", event.Function)
	}
}

// Stop gracefully shuts down the tracker, flushing remaining events.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
}

// processEvents runs in the background, batching and flushing events.
func (t *Tracker) processEvents() {
	defer t.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]DispatchEvent, 0, batchFlushSize)

	for {
		select {
		case event := <-t.eventQueue:
			batch = append(batch, event)
			if len(batch) >= batchFlushSize {
				t.flush(batch)
				batch = make([]DispatchEvent, 0, batchFlushSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = make([]DispatchEvent, 0, batchFlushSize)
			}

		case <-t.stopChan:
			// Drain whatever is still queued, then exit.
			for {
				select {
				case event := <-t.eventQueue:
					batch = append(batch, event)
					if len(batch) >= batchFlushSize {
						t.flush(batch)
						batch = make([]DispatchEvent, 0, batchFlushSize)
					}
				default:
					t.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events to storage.
func (t *Tracker) flush(events []DispatchEvent) {
	for _, event := range events {
		if err := t.recorder.RecordDispatch(event.ToStorage()); err != nil {
			t.logger.Warn("failed to record dispatch", "request_id", event.RequestID, "error", err)
		}
	}
}

// QueueLen returns the current number of events in the queue.
func (t *Tracker) QueueLen() int {
	return len(t.eventQueue)
}
