package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/events/broker"
	"github.com/spec-kit/counselor-presence/internal/service"
)

// StartNotificationWorker subscribes the broker forwarder to domain events and
// returns a shutdown func that closes the broker connection.
func StartNotificationWorker(notifications *service.NotificationService, publisher broker.Publisher, logger *zap.Logger) func() {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	return func() {
		if publisher == nil {
			return
		}
		if err := publisher.Close(); err != nil {
			logger.Warn("close event broker", zap.Error(err))
		}
	}
}
