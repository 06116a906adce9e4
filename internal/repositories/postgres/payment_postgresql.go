package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type PaymentPostgreSQL struct {
	base
}

func NewPaymentPostgreSQL(db *gorm.DB) *PaymentPostgreSQL {
	return &PaymentPostgreSQL{base: base{db: db}}
}

// Create relies on idx_payments_pending_user_course to reject a second
// PENDING slip for the same course.
func (r *PaymentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	if err := r.getDB(tx).WithContext(ctx).Omit("Course").Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentPostgreSQL) HasPending(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.PaymentPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending payment: %w", err)
	}
	return count > 0, nil
}

func (r *PaymentPostgreSQL) Review(ctx context.Context, tx *gorm.DB, id uint, status models.PaymentStatus, reviewerID string, at time.Time) (bool, error) {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to review payment: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *PaymentPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.getDB(tx).WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *PaymentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.PaymentFilters) ([]models.Payment, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Payment{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []models.Payment
	err := ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset).
		Preload("Course").
		Find(&payments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}
