package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type SubmissionPostgreSQL struct {
	base
}

func NewSubmissionPostgreSQL(db *gorm.DB) *SubmissionPostgreSQL {
	return &SubmissionPostgreSQL{base: base{db: db}}
}

func (r *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error {
	if err := r.getDB(tx).WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionPostgreSQL) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]models.AssignmentSubmission, error) {
	var submissions []models.AssignmentSubmission
	err := r.getDB(tx).WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (r *SubmissionPostgreSQL) Grade(ctx context.Context, tx *gorm.DB, id uint, score int, feedback *string, graderID string, at time.Time) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.AssignmentSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":        score,
			"feedback":     feedback,
			"graded_by_id": graderID,
			"graded_at":    at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to grade submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SubmissionPostgreSQL) DeleteByAssignmentIDs(ctx context.Context, tx *gorm.DB, assignmentIDs []uint) error {
	if len(assignmentIDs) == 0 {
		return nil
	}
	err := r.getDB(tx).WithContext(ctx).
		Where("assignment_id IN ?", assignmentIDs).
		Delete(&models.AssignmentSubmission{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}
	return nil
}
