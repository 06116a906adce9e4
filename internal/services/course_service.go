package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

const maxSlugAttempts = 50

type courseService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		cache:     cacheManager,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseService) Create(ctx context.Context, req *CourseCreateRequest, caller Caller) (*models.Course, error) {
	s.logger.Info("Creating course", "title", req.Title, "creator_id", caller.UserID)

	if !caller.Role.IsAdmin() {
		return nil, NewPermissionError(caller.UserID, 0, "course", "create", "insufficient role permissions")
	}
	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	base := utils.Slugify(req.Title)
	if base == "" {
		base = "course"
	}

	// The unique index is the final arbiter; a lost race moves on to the next suffix.
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug, err := s.nextFreeSlug(ctx, base)
		if err != nil {
			return nil, err
		}

		course := &models.Course{
			Title:         req.Title,
			Slug:          slug,
			Description:   req.Description,
			ThumbnailURL:  req.ThumbnailURL,
			Price:         req.Price,
			DiscountPrice: req.DiscountPrice,
			Status:        models.CourseStatusDraft,
			CreatedByID:   caller.UserID,
		}

		err = s.repo.Course().Create(ctx, nil, course)
		if repositories.IsDuplicateError(err) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to create course", "error", err)
			return nil, err
		}

		cache.InvalidateCatalog(ctx, s.cache)
		s.logger.Info("Course created", "course_id", course.ID, "slug", course.Slug)
		return course, nil
	}

	return nil, Conflict("Could not allocate a unique slug for %q", req.Title)
}

// nextFreeSlug returns base, or base-2, base-3... whichever is unused first.
func (s *courseService) nextFreeSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 2; n < maxSlugAttempts+2; n++ {
		exists, err := s.repo.Course().ExistsBySlug(ctx, nil, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", Conflict("Too many courses share the slug %q", base)
}

// Update keeps the slug stable so published links do not break.
func (s *courseService) Update(ctx context.Context, id uint, req *CourseUpdateRequest, caller Caller) (*models.Course, error) {
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceCourse, id, caller, "update"); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Course not found", "")
	}

	if errs := s.validator.GetBusinessValidator().ValidateCourseUpdate(req, course); len(errs) > 0 {
		return nil, errs
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = req.ThumbnailURL
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.DiscountPrice != nil {
		course.DiscountPrice = req.DiscountPrice
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, err
	}

	cache.InvalidateCatalog(ctx, s.cache)
	return course, nil
}

func (s *courseService) Publish(ctx context.Context, id uint, caller Caller) error {
	return s.setStatus(ctx, id, models.CourseStatusPublished, caller)
}

func (s *courseService) Unpublish(ctx context.Context, id uint, caller Caller) error {
	return s.setStatus(ctx, id, models.CourseStatusDraft, caller)
}

func (s *courseService) setStatus(ctx context.Context, id uint, status models.CourseStatus, caller Caller) error {
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceCourse, id, caller, "update_status"); err != nil {
		return err
	}

	if err := s.repo.Course().SetStatus(ctx, nil, id, status); err != nil {
		return mapRepoError(err, "Course not found", "")
	}

	s.logger.Info("Course status changed", "course_id", id, "status", status, "actor_id", caller.UserID)
	cache.InvalidateCatalog(ctx, s.cache)
	return nil
}

func (s *courseService) Delete(ctx context.Context, id uint, caller Caller) error {
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceCourse, id, caller, "delete"); err != nil {
		return err
	}

	if err := s.repo.Course().SoftDelete(ctx, nil, id); err != nil {
		return mapRepoError(err, "Course not found", "")
	}

	s.logger.Info("Course deleted", "course_id", id, "actor_id", caller.UserID)
	cache.InvalidateCatalog(ctx, s.cache)
	return nil
}

func (s *courseService) ListPublished(ctx context.Context, query *CourseListQuery) (*CourseListResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	limit := clampLimit(query.Limit)
	courses, total, err := s.repo.Course().ListPublished(ctx, nil, repositories.CourseFilters{
		Search: query.Search,
		Limit:  limit,
		Offset: query.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Limit:   limit,
		Offset:  query.Offset,
	}, nil
}

func (s *courseService) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course, err := s.repo.Course().GetPublishedBySlug(ctx, nil, slug)
	if err != nil {
		return nil, mapRepoError(err, "Course not found", "")
	}
	return course, nil
}

