package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/events/broker"
)

// NotificationService forwards domain events to the configured broker so
// downstream systems (CRM, paging) can react to alerts and ownership changes.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  broker.Publisher
	logger     *zap.Logger
	producer   string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher broker.Publisher, producer string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		producer:   producer,
	}
}

// RegisterHandlers subscribes the forwarder to every event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.forward)
}

// forward logs the event and hands it to the broker. Broker failures are
// logged and swallowed so that a down sink never fails a reassignment.
func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.ID))
	if n.publisher == nil {
		return nil
	}
	envelope := broker.Envelope{
		Meta: broker.Meta{
			ID:            event.ID,
			Type:          string(event.Type),
			Time:          event.Timestamp,
			CorrelationID: event.ID,
			Subject:       event.SubjectID,
			Producer:      n.producer,
		},
		Data: event.Payload,
	}
	if err := n.publisher.Publish(ctx, routingKey(event), envelope); err != nil {
		n.logger.Warn("broker publish failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

func routingKey(event events.Event) string {
	return "presence." + string(event.Type)
}
