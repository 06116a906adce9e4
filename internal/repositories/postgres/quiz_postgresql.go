package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type QuizPostgreSQL struct {
	base
}

func NewQuizPostgreSQL(db *gorm.DB) *QuizPostgreSQL {
	return &QuizPostgreSQL{base: base{db: db}}
}

func (r *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := r.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (r *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	err := r.getDB(tx).WithContext(ctx).
		Model(quiz).
		Select("questions", "passing_score", "updated_at").
		Updates(quiz).Error
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

func (r *QuizPostgreSQL) DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uint) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	if err := r.getDB(tx).WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Delete(&models.Quiz{}).Error; err != nil {
		return fmt.Errorf("failed to delete quizzes: %w", err)
	}
	return nil
}
