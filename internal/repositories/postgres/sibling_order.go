package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// siblingOrder implements position queries over a table with a sort_order
// column that is unique per parent.
type siblingOrder struct {
	newModel     func() interface{}
	parentColumn string
}

type orderRow struct {
	ID        uint
	SortOrder int
}

func (s siblingOrder) next(ctx context.Context, db *gorm.DB, parentID uint) (int, error) {
	var maxOrder int
	err := db.WithContext(ctx).
		Model(s.newModel()).
		Where(s.parentColumn+" = ?", parentID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute next order: %w", err)
	}
	return maxOrder + 1, nil
}

func (s siblingOrder) adjacent(ctx context.Context, db *gorm.DB, parentID uint, order int, up bool) (uint, int, error) {
	query := db.WithContext(ctx).
		Model(s.newModel()).
		Select("id", "sort_order").
		Where(s.parentColumn+" = ?", parentID)

	if up {
		query = query.Where("sort_order < ? AND sort_order >= 0", order).Order("sort_order DESC")
	} else {
		query = query.Where("sort_order > ?", order).Order("sort_order ASC")
	}

	var row orderRow
	if err := query.Take(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.ID, row.SortOrder, nil
}

func (s siblingOrder) set(ctx context.Context, db *gorm.DB, id uint, order int) error {
	result := db.WithContext(ctx).
		Model(s.newModel()).
		Where("id = ?", id).
		Update("sort_order", order)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
