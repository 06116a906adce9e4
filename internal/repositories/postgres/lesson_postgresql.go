package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type LessonPostgreSQL struct {
	base
	siblings siblingOrder
}

func NewLessonPostgreSQL(db *gorm.DB) *LessonPostgreSQL {
	return &LessonPostgreSQL{
		base:     base{db: db},
		siblings: siblingOrder{newModel: func() interface{} { return &models.Lesson{} }, parentColumn: "module_id"},
	}
}

// Create inserts the lesson row only; side records go through their own repositories.
func (r *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := r.getDB(tx).WithContext(ctx).Omit("Quiz", "Assignment").Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.getDB(tx).WithContext(ctx).
		Preload("Quiz").
		Preload("Assignment").
		Where("id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	err := r.getDB(tx).WithContext(ctx).
		Model(lesson).
		Select("title", "video_url", "content", "updated_at").
		Updates(lesson).Error
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) ListIDsByModule(ctx context.Context, tx *gorm.DB, moduleID uint) ([]uint, error) {
	var ids []uint
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("module_id = ?", moduleID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list module lessons: %w", err)
	}
	return ids, nil
}

func (r *LessonPostgreSQL) ListIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Order("course_modules.sort_order ASC").Order("lessons.sort_order ASC").
		Pluck("lessons.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course lessons: %w", err)
	}
	return ids, nil
}

func (r *LessonPostgreSQL) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.getDB(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&models.Lesson{}).Error; err != nil {
		return fmt.Errorf("failed to delete lessons: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) NextOrder(ctx context.Context, tx *gorm.DB, moduleID uint) (int, error) {
	return r.siblings.next(ctx, r.getDB(tx), moduleID)
}

func (r *LessonPostgreSQL) FindAdjacent(ctx context.Context, tx *gorm.DB, moduleID uint, order int, up bool) (uint, int, error) {
	return r.siblings.adjacent(ctx, r.getDB(tx), moduleID, order, up)
}

func (r *LessonPostgreSQL) UpdateOrder(ctx context.Context, tx *gorm.DB, id uint, order int) error {
	return r.siblings.set(ctx, r.getDB(tx), id, order)
}
