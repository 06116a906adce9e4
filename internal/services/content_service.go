package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type contentService struct {
	txRunner
	repo      repositories.Repository
	authz     AuthorizationService
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewContentService(repo repositories.Repository, db *gorm.DB, authz AuthorizationService, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) ContentService {
	return &contentService{
		txRunner:  txRunner{db: db},
		repo:      repo,
		authz:     authz,
		cache:     cacheManager,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *contentService) GetCourseContent(ctx context.Context, courseID uint, caller Caller) (*models.Course, error) {
	if err := s.authz.CanViewCourseContent(ctx, courseID, caller); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetWithContent(ctx, nil, courseID)
	if err != nil {
		return nil, mapRepoError(err, "Course not found", "")
	}
	return course, nil
}

// ===== MODULES =====

func (s *contentService) CreateModule(ctx context.Context, courseID uint, req *ModuleRequest, caller Caller) (*models.CourseModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var module *models.CourseModule
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := authorize(ctx, tx, s.repo, repositories.ResourceCourse, courseID, caller, "add_module"); err != nil {
			return err
		}

		order, err := s.repo.Module().NextOrder(ctx, tx, courseID)
		if err != nil {
			return err
		}

		module = &models.CourseModule{CourseID: courseID, Title: req.Title, Order: order}
		return mapRepoError(s.repo.Module().Create(ctx, tx, module), "", "Module order changed concurrently, please retry")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Module created", "module_id", module.ID, "course_id", courseID)
	s.invalidateCatalog(ctx)
	return module, nil
}

func (s *contentService) UpdateModule(ctx context.Context, id uint, req *ModuleRequest, caller Caller) (*models.CourseModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceModule, id, caller, "update"); err != nil {
		return nil, err
	}

	if err := s.repo.Module().UpdateTitle(ctx, nil, id, req.Title); err != nil {
		return nil, mapRepoError(err, "Module not found", "")
	}

	module, err := s.repo.Module().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Module not found", "")
	}

	s.invalidateCatalog(ctx)
	return module, nil
}

// DeleteModule removes the module and every descendant row in one
// transaction, children first.
func (s *contentService) DeleteModule(ctx context.Context, id uint, caller Caller) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := authorize(ctx, tx, s.repo, repositories.ResourceModule, id, caller, "delete"); err != nil {
			return err
		}

		lessonIDs, err := s.repo.Lesson().ListIDsByModule(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.deleteLessons(ctx, tx, lessonIDs); err != nil {
			return err
		}

		return mapRepoError(s.repo.Module().Delete(ctx, tx, id), "Module not found", "")
	})
	if err != nil {
		return err
	}

	s.logger.Info("Module deleted", "module_id", id, "actor_id", caller.UserID)
	s.invalidateCatalog(ctx)
	return nil
}

func (s *contentService) ReorderModule(ctx context.Context, id uint, direction validator.Direction, caller Caller) error {
	if err := s.validator.Validate(&validator.ReorderRequest{Direction: direction}); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		projection, err := authorize(ctx, tx, s.repo, repositories.ResourceModule, id, caller, "reorder")
		if err != nil {
			return err
		}

		module, err := s.repo.Module().GetByID(ctx, tx, id)
		if err != nil {
			return mapRepoError(err, "Module not found", "")
		}

		return swapWithSibling(ctx, tx, s.repo.Module(), projection.CourseID, module.ID, module.Order, direction)
	})
	if err != nil {
		return err
	}

	s.invalidateCatalog(ctx)
	return nil
}

// ===== LESSONS =====

// CreateLesson creates the lesson and, for QUIZ and ASSIGNMENT lessons, the
// side record in the same transaction.
func (s *contentService) CreateLesson(ctx context.Context, moduleID uint, req *LessonCreateRequest, caller Caller) (*models.Lesson, error) {
	if errs := s.validator.GetBusinessValidator().ValidateLessonCreate(req); len(errs) > 0 {
		return nil, errs
	}

	var lesson *models.Lesson
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := authorize(ctx, tx, s.repo, repositories.ResourceModule, moduleID, caller, "add_lesson"); err != nil {
			return err
		}

		order, err := s.repo.Lesson().NextOrder(ctx, tx, moduleID)
		if err != nil {
			return err
		}

		lesson = &models.Lesson{
			ModuleID: moduleID,
			Title:    req.Title,
			Type:     req.Type,
			VideoURL: req.VideoURL,
			Content:  req.Content,
			Order:    order,
		}
		if err := s.repo.Lesson().Create(ctx, tx, lesson); err != nil {
			return mapRepoError(err, "", "Lesson order changed concurrently, please retry")
		}

		switch req.Type {
		case models.LessonTypeQuiz:
			quiz := &models.Quiz{LessonID: lesson.ID, Questions: datatypes.JSON("[]")}
			if req.Quiz != nil {
				if len(req.Quiz.Questions) > 0 {
					quiz.Questions = datatypes.JSON(req.Quiz.Questions)
				}
				quiz.PassingScore = req.Quiz.PassingScore
			}
			if err := s.repo.Quiz().Create(ctx, tx, quiz); err != nil {
				return err
			}
			lesson.Quiz = quiz

		case models.LessonTypeAssignment:
			assignment := &models.Assignment{LessonID: lesson.ID, MaxScore: 100}
			if req.Assignment != nil {
				assignment.Instructions = req.Assignment.Instructions
				assignment.MaxScore = req.Assignment.MaxScore
				assignment.DueDate = req.Assignment.DueDate
			}
			if err := s.repo.Assignment().Create(ctx, tx, assignment); err != nil {
				return err
			}
			lesson.Assignment = assignment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lesson created", "lesson_id", lesson.ID, "module_id", moduleID, "type", lesson.Type)
	s.invalidateCatalog(ctx)
	return lesson, nil
}

func (s *contentService) UpdateLesson(ctx context.Context, id uint, req *LessonUpdateRequest, caller Caller) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceLesson, id, caller, "update"); err != nil {
		return nil, err
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Lesson not found", "")
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)
	return lesson, nil
}

func (s *contentService) DeleteLesson(ctx context.Context, id uint, caller Caller) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := authorize(ctx, tx, s.repo, repositories.ResourceLesson, id, caller, "delete"); err != nil {
			return err
		}
		return s.deleteLessons(ctx, tx, []uint{id})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Lesson deleted", "lesson_id", id, "actor_id", caller.UserID)
	s.invalidateCatalog(ctx)
	return nil
}

func (s *contentService) ReorderLesson(ctx context.Context, id uint, direction validator.Direction, caller Caller) error {
	if err := s.validator.Validate(&validator.ReorderRequest{Direction: direction}); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := authorize(ctx, tx, s.repo, repositories.ResourceLesson, id, caller, "reorder"); err != nil {
			return err
		}

		lesson, err := s.repo.Lesson().GetByID(ctx, tx, id)
		if err != nil {
			return mapRepoError(err, "Lesson not found", "")
		}

		return swapWithSibling(ctx, tx, s.repo.Lesson(), lesson.ModuleID, lesson.ID, lesson.Order, direction)
	})
	if err != nil {
		return err
	}

	s.invalidateCatalog(ctx)
	return nil
}

// deleteLessons removes lessons and everything hanging off them. The order
// follows the foreign keys: submissions, assignments, quizzes, progress, lessons.
func (s *contentService) deleteLessons(ctx context.Context, tx *gorm.DB, lessonIDs []uint) error {
	if len(lessonIDs) == 0 {
		return nil
	}

	assignmentIDs, err := s.repo.Assignment().ListIDsByLessonIDs(ctx, tx, lessonIDs)
	if err != nil {
		return err
	}
	if err := s.repo.Submission().DeleteByAssignmentIDs(ctx, tx, assignmentIDs); err != nil {
		return err
	}
	if err := s.repo.Assignment().DeleteByIDs(ctx, tx, assignmentIDs); err != nil {
		return err
	}
	if err := s.repo.Quiz().DeleteByLessonIDs(ctx, tx, lessonIDs); err != nil {
		return err
	}
	if err := s.repo.Progress().DeleteByLessonIDs(ctx, tx, lessonIDs); err != nil {
		return err
	}
	return s.repo.Lesson().DeleteByIDs(ctx, tx, lessonIDs)
}

// swapWithSibling exchanges positions with the neighbour in direction. The
// row first moves to SentinelOrder so the unique (parent, sort_order) index
// never sees two rows on one position.
func swapWithSibling(ctx context.Context, tx *gorm.DB, siblings repositories.SiblingRepository, parentID, id uint, order int, direction validator.Direction) error {
	adjacentID, adjacentOrder, err := siblings.FindAdjacent(ctx, tx, parentID, order, direction == validator.DirectionUp)
	if repositories.IsNotFoundError(err) {
		if direction == validator.DirectionUp {
			return BadRequest("Already at the top")
		}
		return BadRequest("Already at the bottom")
	}
	if err != nil {
		return err
	}

	if err := siblings.UpdateOrder(ctx, tx, id, models.SentinelOrder); err != nil {
		return err
	}
	if err := siblings.UpdateOrder(ctx, tx, adjacentID, order); err != nil {
		return err
	}
	return siblings.UpdateOrder(ctx, tx, id, adjacentOrder)
}

func (s *contentService) invalidateCatalog(ctx context.Context) {
	if s.cache != nil {
		cache.InvalidateCatalog(ctx, s.cache)
	}
}
