package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-ledger/internal/events"
)

// Warmer reloads a ticket's change-set log into the cache.
type Warmer interface {
	WarmCache(ctx context.Context, ticketID string) error
}

// CacheWarmer refills the log cache in the background after every append,
// so the next read of a busy ticket avoids the database.
type CacheWarmer struct {
	warmer  Warmer
	logger  *zap.Logger
	timeout time.Duration
	queue   chan string
	wg      sync.WaitGroup
}

// NewCacheWarmer builds a warmer with a bounded queue. When the queue is
// full, warm-ups are dropped; the next read repopulates the cache anyway.
func NewCacheWarmer(warmer Warmer, logger *zap.Logger, queueSize int) *CacheWarmer {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &CacheWarmer{
		warmer:  warmer,
		logger:  logger,
		timeout: 5 * time.Second,
		queue:   make(chan string, queueSize),
	}
}

// Subscribe registers the warmer for append events.
func (w *CacheWarmer) Subscribe(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventChangeSetAppended, w.handle)
}

func (w *CacheWarmer) handle(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event.TicketID:
	default:
		w.logger.Debug("cache warm-up dropped", zap.String("ticket_id", event.TicketID))
	}
	return nil
}

// Start runs the worker until ctx is done.
func (w *CacheWarmer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ticketID := <-w.queue:
				w.warm(ctx, ticketID)
			}
		}
	}()
}

// Wait blocks until the worker goroutine exits.
func (w *CacheWarmer) Wait() {
	w.wg.Wait()
}

func (w *CacheWarmer) warm(ctx context.Context, ticketID string) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.warmer.WarmCache(ctx, ticketID); err != nil {
		w.logger.Warn("cache warm-up failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}
