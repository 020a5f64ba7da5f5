package service

import (
	"context"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-ledger/internal/config"
	"github.com/spec-kit/ticket-ledger/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventFirstResponseRecorded, n.handleFirstResponseRecorded)
	n.dispatcher.Subscribe(events.EventAffectedEntitiesLinked, n.handleAffectedLinked)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", eventFields(event)...)
	n.sendWebhook(event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", eventFields(event)...)
	n.sendWebhook(event)
	return nil
}

func (n *NotificationService) handleFirstResponseRecorded(_ context.Context, event events.Event) error {
	n.logger.Info("FirstResponseRecorded", eventFields(event)...)
	return nil
}

func (n *NotificationService) handleAffectedLinked(_ context.Context, event events.Event) error {
	n.logger.Info("AffectedEntitiesLinked", eventFields(event)...)
	n.sendWebhook(event)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("ticket_id", event.TicketID),
		zap.String("change_set_id", event.ChangeSetID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload),
	}
}

// sendWebhook posts event as JSON to the configured webhook in the
// background. Delivery failures are logged and never reach the publisher.
func (n *NotificationService) sendWebhook(event events.Event) {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return
	}
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		code, _, errs := fiber.Post(url).Timeout(n.cfg.Timeout()).JSON(event).Bytes()
		fields := []zap.Field{
			zap.String("url", url),
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
		}
		switch {
		case len(errs) > 0:
			n.logger.Warn("webhook delivery failed", append(fields, zap.Errors("errors", errs))...)
		case code < fiber.StatusOK || code >= fiber.StatusMultipleChoices:
			n.logger.Warn("webhook rejected", append(fields, zap.Int("status", code))...)
		default:
			n.logger.Debug("webhook delivered", append(fields, zap.Int("status", code))...)
		}
	}()
}

// Wait blocks until pending webhook deliveries finish.
func (n *NotificationService) Wait() {
	n.inflight.Wait()
}
