package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type enrollmentRequestService struct {
	txRunner
	repo      repositories.Repository
	notifier  Notifier
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewEnrollmentRequestService(repo repositories.Repository, db *gorm.DB, notifier Notifier, logger *slog.Logger, validator *validator.Validator) EnrollmentRequestService {
	return &enrollmentRequestService{
		txRunner:  txRunner{db: db},
		repo:      repo,
		notifier:  notifier,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *enrollmentRequestService) Create(ctx context.Context, userID string, req *EnrollmentRequestCreate) (*models.EnrollmentRequest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := loadEnrollableCourse(ctx, nil, s.repo, req.CourseID); err != nil {
		return nil, err
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if enrollment != nil && enrollment.Status == models.EnrollmentActive {
		return nil, Conflict("Already enrolled in this course")
	}

	pending, err := s.repo.EnrollmentRequest().HasPending(ctx, nil, userID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, Conflict("An enrollment request for this course is already pending")
	}

	request := &models.EnrollmentRequest{
		UserID:        userID,
		CourseID:      req.CourseID,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		TransactionID: req.TransactionID,
		ScreenshotURL: req.ScreenshotURL,
		Status:        models.RequestPending,
	}
	if err := s.repo.EnrollmentRequest().Create(ctx, nil, request); err != nil {
		return nil, mapRepoError(err, "", "An enrollment request for this course is already pending")
	}

	s.logger.Info("Enrollment request created", "request_id", request.ID, "user_id", userID, "course_id", req.CourseID)
	return request, nil
}

// Approve marks the request APPROVED and brings the enrollment to ACTIVE in
// one transaction. The enrollment step is an upsert, so a retried approval
// never trips the (user, course) unique index.
func (s *enrollmentRequestService) Approve(ctx context.Context, id uint, adminID string, note *string) (*models.EnrollmentRequest, error) {
	request, err := s.review(ctx, id, adminID, note, models.RequestApproved, func(tx *gorm.DB, r *models.EnrollmentRequest) error {
		enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, tx, r.UserID, r.CourseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return s.repo.Enrollment().Create(ctx, tx, &models.Enrollment{
				UserID:       r.UserID,
				CourseID:     r.CourseID,
				Status:       models.EnrollmentActive,
				EnrolledByID: &adminID,
			})
		}
		if enrollment.Status != models.EnrollmentActive {
			_, err := s.repo.Enrollment().TransitionStatus(ctx, tx, enrollment.ID, models.EnrollmentActive, models.EnrollmentPending, models.EnrollmentCancelled)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatch(ctx, s.notifier, s.logger, notification{
		userID:  request.UserID,
		kind:    models.NotificationRequestApproved,
		title:   "Enrollment request approved",
		message: "Your enrollment request has been approved. You now have access to the course.",
		data:    map[string]interface{}{"requestId": request.ID, "courseId": request.CourseID},
	})

	return request, nil
}

// Reject leaves any enrollment row untouched.
func (s *enrollmentRequestService) Reject(ctx context.Context, id uint, adminID string, note *string) (*models.EnrollmentRequest, error) {
	request, err := s.review(ctx, id, adminID, note, models.RequestRejected, nil)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{"requestId": request.ID, "courseId": request.CourseID}
	if note != nil {
		data["adminNote"] = *note
	}
	dispatch(ctx, s.notifier, s.logger, notification{
		userID:  request.UserID,
		kind:    models.NotificationRequestRejected,
		title:   "Enrollment request rejected",
		message: "Your enrollment request has been rejected.",
		data:    data,
	})

	return request, nil
}

func (s *enrollmentRequestService) review(ctx context.Context, id uint, adminID string, note *string, status models.RequestStatus, then func(tx *gorm.DB, r *models.EnrollmentRequest) error) (*models.EnrollmentRequest, error) {
	var request *models.EnrollmentRequest
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		r, err := s.repo.EnrollmentRequest().GetByID(ctx, tx, id)
		if err != nil {
			return mapRepoError(err, "Enrollment request not found", "")
		}
		if r.Status != models.RequestPending {
			return BadRequest("Enrollment request has already been %s", strings.ToLower(string(r.Status)))
		}

		at := s.now()
		changed, err := s.repo.EnrollmentRequest().Review(ctx, tx, id, status, note, adminID, at)
		if err != nil {
			return err
		}
		if !changed {
			return BadRequest("Enrollment request has already been reviewed")
		}

		if then != nil {
			if err := then(tx, r); err != nil {
				return err
			}
		}

		r.Status = status
		r.AdminNote = note
		r.ReviewedByID = &adminID
		r.ReviewedAt = &at
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Enrollment request reviewed", "request_id", id, "status", status, "admin_id", adminID)
	return request, nil
}

func (s *enrollmentRequestService) ListMine(ctx context.Context, userID string) ([]models.EnrollmentRequest, error) {
	return s.repo.EnrollmentRequest().ListByUser(ctx, nil, userID)
}

func (s *enrollmentRequestService) List(ctx context.Context, query *ListQuery) (*EnrollmentRequestListResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	filters := repositories.EnrollmentRequestFilters{Limit: clampLimit(query.Limit), Offset: query.Offset}
	if query.Status != "" {
		status := models.RequestStatus(strings.ToUpper(query.Status))
		switch status {
		case models.RequestPending, models.RequestApproved, models.RequestRejected:
			filters.Status = &status
		default:
			return nil, BadRequest("Unknown request status %q", query.Status)
		}
	}
	if query.CourseID != 0 {
		filters.CourseID = &query.CourseID
	}
	if query.UserID != "" {
		filters.UserID = &query.UserID
	}

	requests, total, err := s.repo.EnrollmentRequest().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	return &EnrollmentRequestListResponse{Requests: requests, Total: total}, nil
}
