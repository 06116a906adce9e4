package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type ProgressPostgreSQL struct {
	base
}

func NewProgressPostgreSQL(db *gorm.DB) *ProgressPostgreSQL {
	return &ProgressPostgreSQL{base: base{db: db}}
}

// MarkCompleted is idempotent; the first completion time is kept.
func (r *ProgressPostgreSQL) MarkCompleted(ctx context.Context, tx *gorm.DB, userID string, lessonID uint, at time.Time) (*models.LessonProgress, error) {
	db := r.getDB(tx).WithContext(ctx)

	progress := models.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: &at,
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed":    true,
			"completed_at": gorm.Expr("COALESCE(lesson_progress.completed_at, ?)", at),
			"updated_at":   at,
		}),
	}).Create(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark lesson completed: %w", err)
	}

	var stored models.LessonProgress
	if err := db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ProgressPostgreSQL) ListCompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID string, lessonIDs []uint) ([]uint, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.LessonProgress{}).
		Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return ids, nil
}

func (r *ProgressPostgreSQL) DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uint) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	err := r.getDB(tx).WithContext(ctx).
		Where("lesson_id IN ?", lessonIDs).
		Delete(&models.LessonProgress{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}
