package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type EnrollmentRequestPostgreSQL struct {
	base
}

func NewEnrollmentRequestPostgreSQL(db *gorm.DB) *EnrollmentRequestPostgreSQL {
	return &EnrollmentRequestPostgreSQL{base: base{db: db}}
}

func (r *EnrollmentRequestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, request *models.EnrollmentRequest) error {
	if err := r.getDB(tx).WithContext(ctx).Omit("Course").Create(request).Error; err != nil {
		return fmt.Errorf("failed to create enrollment request: %w", err)
	}
	return nil
}

func (r *EnrollmentRequestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EnrollmentRequest, error) {
	var request models.EnrollmentRequest
	if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *EnrollmentRequestPostgreSQL) HasPending(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.EnrollmentRequest{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.RequestPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return count > 0, nil
}

func (r *EnrollmentRequestPostgreSQL) Review(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus, note *string, reviewerID string, at time.Time) (bool, error) {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.EnrollmentRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]interface{}{
			"status":         status,
			"admin_note":     note,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to review enrollment request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *EnrollmentRequestPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.EnrollmentRequest, error) {
	var requests []models.EnrollmentRequest
	err := r.getDB(tx).WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollment requests: %w", err)
	}
	return requests, nil
}

func (r *EnrollmentRequestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentRequestFilters) ([]models.EnrollmentRequest, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.EnrollmentRequest{})
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
		return nil, 0, fmt.Errorf("failed to count enrollment requests: %w", err)
	}

	var requests []models.EnrollmentRequest
	err := ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset).
		Preload("Course").
		Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollment requests: %w", err)
	}
	return requests, total, nil
}
