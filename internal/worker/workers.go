package worker

import (
	"context"

	"github.com/spec-kit/ticket-ledger/internal/events"
	"github.com/spec-kit/ticket-ledger/internal/service"
)

// StartAll subscribes the notification handlers and, when warmer is
// non-nil, starts the cache warmer. The returned wait blocks until the
// started workers exit after ctx is done and pending webhooks finish.
func StartAll(ctx context.Context, dispatcher events.Dispatcher, notifications *service.NotificationService, warmer *CacheWarmer) (wait func()) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	waitNotifications := func() {
		if notifications != nil {
			notifications.Wait()
		}
	}
	if warmer == nil || dispatcher == nil {
		return waitNotifications
	}
	warmer.Subscribe(dispatcher)
	warmer.Start(ctx)
	return func() {
		warmer.Wait()
		waitNotifications()
	}
}
