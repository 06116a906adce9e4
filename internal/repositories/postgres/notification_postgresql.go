package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type NotificationPostgreSQL struct {
	base
}

func NewNotificationPostgreSQL(db *gorm.DB) *NotificationPostgreSQL {
	return &NotificationPostgreSQL{base: base{db: db}}
}

func (r *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if err := r.getDB(tx).WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit, offset int) ([]models.Notification, int64, error) {
	query := r.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	if err := ApplyPaginationAndSort(query, "created_at", "desc", limit, offset).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *NotificationPostgreSQL) MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string, at time.Time) (bool, error) {
	var notification models.Notification
	db := r.getDB(tx).WithContext(ctx)

	err := db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error
	if err != nil {
		return false, err
	}
	if notification.IsRead {
		return true, nil
	}

	err = db.Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return true, nil
}
