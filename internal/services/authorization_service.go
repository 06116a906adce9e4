package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type authorizationService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAuthorizationService(repo repositories.Repository, logger *slog.Logger) AuthorizationService {
	return &authorizationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *authorizationService) Authorize(ctx context.Context, kind repositories.ResourceKind, resourceID uint, caller Caller) (*repositories.OwnershipProjection, error) {
	return authorize(ctx, nil, s.repo, kind, resourceID, caller, "modify")
}

func (s *authorizationService) CanViewCourseContent(ctx context.Context, courseID uint, caller Caller) error {
	projection, err := resolveOwnership(ctx, nil, s.repo, repositories.ResourceCourse, courseID)
	if err != nil {
		return err
	}

	switch caller.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if projection.OwnerID == caller.UserID {
			return nil
		}
		return NewPermissionError(caller.UserID, courseID, "course", "view", "not the course owner")
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, caller.UserID, courseID)
	if err != nil {
		return err
	}
	if enrollment == nil || enrollment.Status != models.EnrollmentActive {
		return NewPermissionError(caller.UserID, courseID, "course", "view", "no active enrollment")
	}
	return nil
}

// authorize is shared by every service that mutates course content. Only
// ADMIN and SUPER_ADMIN reach the ownership lookup; other roles are refused
// before the resource is resolved.
func authorize(ctx context.Context, tx *gorm.DB, repo repositories.Repository, kind repositories.ResourceKind, resourceID uint, caller Caller, action string) (*repositories.OwnershipProjection, error) {
	if !caller.Role.IsAdmin() {
		return nil, NewPermissionError(caller.UserID, resourceID, string(kind), action, "insufficient role permissions")
	}

	projection, err := resolveOwnership(ctx, tx, repo, kind, resourceID)
	if err != nil {
		return nil, err
	}

	if caller.Role == models.RoleSuperAdmin || projection.OwnerID == caller.UserID {
		return projection, nil
	}
	return nil, NewPermissionError(caller.UserID, resourceID, string(kind), action, "not the course owner")
}

func resolveOwnership(ctx context.Context, tx *gorm.DB, repo repositories.Repository, kind repositories.ResourceKind, resourceID uint) (*repositories.OwnershipProjection, error) {
	projection, err := repo.Ownership().Resolve(ctx, tx, kind, resourceID)
	if err != nil {
		return nil, mapRepoError(err, resourceLabel(kind)+" not found", "")
	}
	return projection, nil
}

func resourceLabel(kind repositories.ResourceKind) string {
	switch kind {
	case repositories.ResourceCourse:
		return "Course"
	case repositories.ResourceModule:
		return "Module"
	case repositories.ResourceLesson:
		return "Lesson"
	case repositories.ResourceQuiz:
		return "Quiz"
	case repositories.ResourceAssignment:
		return "Assignment"
	default:
		return "Resource"
	}
}
