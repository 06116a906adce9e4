package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type notificationService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewNotificationService stores in-app notifications and announces them on
// the event bus. publisher may be nil, in which case no email goes out.
func NewNotificationService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string, data map[string]interface{}) error {
	var payload datatypes.JSON
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		payload = datatypes.JSON(raw)
	}

	n := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    payload,
	}
	if err := s.repo.Notification().Create(ctx, nil, n); err != nil {
		return err
	}

	if s.publisher == nil {
		return nil
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", userID, err)
	}

	event, err := events.NewEvent(events.EventNotificationCreated, events.NotificationCreatedData{
		NotificationID: n.ID,
		UserID:         userID,
		Email:          user.Email,
		FullName:       user.FullName,
		Type:           string(kind),
		Title:          title,
		Message:        message,
	})
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.TopicNotifications, event); err != nil {
		return fmt.Errorf("failed to publish notification %d: %w", n.ID, err)
	}
	return nil
}

func (s *notificationService) ListMine(ctx context.Context, userID string, limit, offset int) (*NotificationListResponse, error) {
	if offset < 0 {
		offset = 0
	}
	notifications, total, err := s.repo.Notification().ListByUser(ctx, nil, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	return &NotificationListResponse{Notifications: notifications, Total: total}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID string) error {
	found, err := s.repo.Notification().MarkRead(ctx, nil, id, userID, s.now())
	if err != nil {
		return mapRepoError(err, "Notification not found", "")
	}
	if !found {
		return NotFound("Notification not found")
	}
	return nil
}
