package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/service"
)

// StartNotificationWorker runs the notification consumers in the background.
// The returned channel is closed once every stream has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		if err := notificationService.Run(ctx); err != nil {
			logger.Error("notification worker stopped", zap.Error(err))
		}
	}()
	return done
}
