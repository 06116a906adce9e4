package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type AssignmentPostgreSQL struct {
	base
}

func NewAssignmentPostgreSQL(db *gorm.DB) *AssignmentPostgreSQL {
	return &AssignmentPostgreSQL{base: base{db: db}}
}

func (r *AssignmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	if err := r.getDB(tx).WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *AssignmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	err := r.getDB(tx).WithContext(ctx).
		Model(assignment).
		Select("instructions", "max_score", "due_date", "updated_at").
		Updates(assignment).Error
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

func (r *AssignmentPostgreSQL) ListIDsByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uint) ([]uint, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Assignment{}).
		Where("lesson_id IN ?", lessonIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return ids, nil
}

func (r *AssignmentPostgreSQL) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.getDB(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&models.Assignment{}).Error; err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	return nil
}
