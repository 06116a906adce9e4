package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type CoursePostgreSQL struct {
	base
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) *CoursePostgreSQL {
	return &CoursePostgreSQL{
		base:         base{db: db},
		cacheManager: cacheManager,
	}
}

type publishedPage struct {
	Items []models.Course `json:"items"`
	Total int64           `json:"total"`
}

func (r *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := r.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := r.getDB(tx).WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetPublishedBySlug is read through the catalog cache when no transaction is given.
func (r *CoursePostgreSQL) GetPublishedBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error) {
	fetch := func() (interface{}, error) {
		var course models.Course
		err := r.getDB(tx).WithContext(ctx).
			Where("slug = ? AND status = ? AND is_deleted = ?", slug, models.CourseStatusPublished, false).
			Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
			Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
				return db.Select("id", "module_id", "title", "type", "sort_order", "created_at", "updated_at").Order("sort_order ASC")
			}).
			First(&course).Error
		if err != nil {
			return nil, err
		}
		return &course, nil
	}

	if tx != nil || r.cacheManager == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*models.Course), nil
	}

	var course models.Course
	if err := r.cacheManager.Course.CacheOrExecute(ctx, cache.SlugKey(slug), &course, r.cacheManager.CourseTTL, fetch); err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CoursePostgreSQL) GetWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := r.getDB(tx).WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Modules.Lessons.Quiz").
		Preload("Modules.Lessons.Assignment").
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsBySlug includes soft-deleted rows since the unique index still holds them.
func (r *CoursePostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	err := r.getDB(tx).WithContext(ctx).
		Model(course).
		Select("title", "slug", "description", "thumbnail_url", "price", "discount_price", "updated_at").
		Updates(course).Error
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

func (r *CoursePostgreSQL) SetStatus(ctx context.Context, tx *gorm.DB, id uint, status models.CourseStatus) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update course status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CoursePostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"status":     models.CourseStatusDraft,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CoursePostgreSQL) ListPublished(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]models.Course, int64, error) {
	search := strings.TrimSpace(filters.Search)

	fetch := func() (interface{}, error) {
		query := r.getDB(tx).WithContext(ctx).
			Model(&models.Course{}).
			Where("status = ? AND is_deleted = ?", models.CourseStatusPublished, false)
		if search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count courses: %w", err)
		}

		var courses []models.Course
		query = ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
		if err := query.Find(&courses).Error; err != nil {
			return nil, fmt.Errorf("failed to list courses: %w", err)
		}
		return &publishedPage{Items: courses, Total: total}, nil
	}

	var page publishedPage
	if tx != nil || r.cacheManager == nil {
		v, err := fetch()
		if err != nil {
			return nil, 0, err
		}
		page = *v.(*publishedPage)
	} else {
		key := cache.PublishedListKey(strings.ToLower(search), filters.Limit, filters.Offset)
		if err := r.cacheManager.Course.CacheOrExecute(ctx, key, &page, r.cacheManager.CourseTTL, fetch); err != nil {
			return nil, 0, err
		}
	}

	return page.Items, page.Total, nil
}
