package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mopc-digital/expedientes/internal/models"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// NotificationService creates in-app notifications and mirrors them by email
type NotificationService struct {
	repo   NotificationRepository
	users  UserRepository
	email  EmailService
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo NotificationRepository, users UserRepository, email EmailService, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		users:  users,
		email:  email,
		logger: logger,
	}
}

// Notify creates a notification for a user. Email delivery is best-effort:
// the in-app notification is the source of truth and a failed email never
// fails the calling operation.
func (s *NotificationService) Notify(ctx context.Context, userID string, caseID *string, notifType, title, message string) {
	n := &models.Notification{
		UserID:  userID,
		CaseID:  caseID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}

	if _, err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			slog.String("user_id", userID),
			slog.String("type", notifType),
			slog.Any("error", err))
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to get user for notification email",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
		return
	}

	if !user.Active {
		return
	}

	if err := s.email.SendNotificationEmail(ctx, user.Email, title, message); err != nil {
		s.logger.Error("failed to send notification email",
			slog.String("user_id", userID),
			slog.Any("error", err))
	}
}

// NotifyDepartment notifies every active user in a department
func (s *NotificationService) NotifyDepartment(ctx context.Context, departmentID string, caseID *string, notifType, title, message string) {
	users, err := s.users.ListByDepartment(ctx, departmentID)
	if err != nil {
		s.logger.Error("failed to list department users for notification",
			slog.String("department_id", departmentID),
			slog.Any("error", err))
		return
	}

	for _, u := range users {
		if !u.Active {
			continue
		}
		s.Notify(ctx, u.ID, caseID, notifType, title, message)
	}
}

// ListForUser returns a page of a user's notifications
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	limit, offset = clampPage(limit, offset)

	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// CountUnread returns the number of unread notifications for a user
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
