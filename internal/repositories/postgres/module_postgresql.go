package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type ModulePostgreSQL struct {
	base
	siblings siblingOrder
}

func NewModulePostgreSQL(db *gorm.DB) *ModulePostgreSQL {
	return &ModulePostgreSQL{
		base:     base{db: db},
		siblings: siblingOrder{newModel: func() interface{} { return &models.CourseModule{} }, parentColumn: "course_id"},
	}
}

func (r *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.CourseModule) error {
	if err := r.getDB(tx).WithContext(ctx).Omit("Lessons").Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	return nil
}

func (r *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseModule, error) {
	var module models.CourseModule
	if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *ModulePostgreSQL) UpdateTitle(ctx context.Context, tx *gorm.DB, id uint, title string) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.CourseModule{}).
		Where("id = ?", id).
		Update("title", title)
	if result.Error != nil {
		return fmt.Errorf("failed to update module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ModulePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.getDB(tx).WithContext(ctx).Delete(&models.CourseModule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ModulePostgreSQL) NextOrder(ctx context.Context, tx *gorm.DB, courseID uint) (int, error) {
	return r.siblings.next(ctx, r.getDB(tx), courseID)
}

func (r *ModulePostgreSQL) FindAdjacent(ctx context.Context, tx *gorm.DB, courseID uint, order int, up bool) (uint, int, error) {
	return r.siblings.adjacent(ctx, r.getDB(tx), courseID, order, up)
}

func (r *ModulePostgreSQL) UpdateOrder(ctx context.Context, tx *gorm.DB, id uint, order int) error {
	return r.siblings.set(ctx, r.getDB(tx), id, order)
}
