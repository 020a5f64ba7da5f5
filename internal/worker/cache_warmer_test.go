package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-ledger/internal/events"
)

type recordingWarmer struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func (r *recordingWarmer) WarmCache(_ context.Context, ticketID string) error {
	r.mu.Lock()
	r.seen = append(r.seen, ticketID)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestCacheWarmer_WarmsOnAppend(t *testing.T) {
	rec := &recordingWarmer{done: make(chan struct{}, 1)}
	dispatcher := events.NewInMemoryDispatcher()
	w := NewCacheWarmer(rec, zap.NewNop(), 4)
	w.Subscribe(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	if err := dispatcher.Publish(ctx, events.Event{Type: events.EventChangeSetAppended, TicketID: "t-1"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("warmer did not run")
	}
	cancel()
	w.Wait()

	if len(rec.seen) != 1 || rec.seen[0] != "t-1" {
		t.Errorf("warmed = %v, want [t-1]", rec.seen)
	}
}

func TestCacheWarmer_DropsWhenFull(t *testing.T) {
	w := NewCacheWarmer(&recordingWarmer{done: make(chan struct{}, 8)}, zap.NewNop(), 1)
	for i := 0; i < 3; i++ {
		if err := w.handle(context.Background(), events.Event{TicketID: "t"}); err != nil {
			t.Fatalf("handle() error = %v", err)
		}
	}
	if len(w.queue) != 1 {
		t.Errorf("queue length = %d, want 1", len(w.queue))
	}
}
