package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mopc-digital/expedientes/internal/config"
	"github.com/mopc-digital/expedientes/internal/repositories"
)

// CleanupManager periodically prunes aged activity and notification rows
type CleanupManager struct {
	activityRepo     *repositories.ActivityRepository
	notificationRepo *repositories.NotificationRepository
	retention        config.RetentionConfig
	logger           *slog.Logger
	stopCh           chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	activityRepo *repositories.ActivityRepository,
	notificationRepo *repositories.NotificationRepository,
	retention config.RetentionConfig,
	logger *slog.Logger,
) *CleanupManager {
	return &CleanupManager{
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
		retention:        retention,
		logger:           logger,
		stopCh:           make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.retention.CleanupInterval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes rows past their retention window
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cm.logger.Info("starting retention cleanup")

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	activityRows, err := cm.activityRepo.Cleanup(cleanupCtx, cm.retention.ActivityRetentionDays)
	if err != nil {
		cm.logger.Error("failed to cleanup aged activities", slog.Any("error", err))
	} else if activityRows > 0 {
		cm.logger.Info("activity cleanup completed", slog.Int64("rows_deleted", activityRows))
	}

	notificationRows, err := cm.notificationRepo.Cleanup(cleanupCtx, cm.retention.NotificationRetentionDays)
	if err != nil {
		cm.logger.Error("failed to cleanup aged notifications", slog.Any("error", err))
	} else if notificationRows > 0 {
		cm.logger.Info("notification cleanup completed", slog.Int64("rows_deleted", notificationRows))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
