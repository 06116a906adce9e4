package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

const (
	exportSheet   = "Enrollments"
	exportPage    = 100
	exportMaxRows = 10000
)

type enrollmentService struct {
	txRunner
	repo      repositories.Repository
	notifier  Notifier
	logger    *slog.Logger
	validator *validator.Validator
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, notifier Notifier, logger *slog.Logger, validator *validator.Validator) EnrollmentService {
	return &enrollmentService{
		txRunner:  txRunner{db: db},
		repo:      repo,
		notifier:  notifier,
		logger:    logger,
		validator: validator,
	}
}

func (s *enrollmentService) EnrollSelf(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error) {
	s.logger.Info("Self enrollment", "user_id", userID, "course_id", courseID)
	return s.create(ctx, userID, courseID, nil)
}

func (s *enrollmentService) EnrollStudent(ctx context.Context, adminID string, req *AdminEnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.User().GetByID(ctx, nil, req.StudentID); err != nil {
		return nil, mapRepoError(err, "Student not found", "")
	}

	s.logger.Info("Admin enrollment", "admin_id", adminID, "student_id", req.StudentID, "course_id", req.CourseID)
	return s.create(ctx, req.StudentID, req.CourseID, &adminID)
}

// create inserts a PENDING enrollment. Any existing row for the pair,
// whatever its status, is a conflict.
func (s *enrollmentService) create(ctx context.Context, userID string, courseID uint, enrolledBy *string) (*models.Enrollment, error) {
	if _, err := loadEnrollableCourse(ctx, nil, s.repo, courseID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Conflict("Already enrolled in this course")
	}

	enrollment := &models.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		Status:       models.EnrollmentPending,
		EnrolledByID: enrolledBy,
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		return nil, mapRepoError(err, "", "Already enrolled in this course")
	}
	return enrollment, nil
}

// Activate moves a PENDING enrollment to ACTIVE. A cancelled enrollment
// needs a new payment instead.
func (s *enrollmentService) Activate(ctx context.Context, id uint, adminID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Enrollment not found", "")
	}

	if err := activationBlocked(enrollment.Status); err != nil {
		return nil, err
	}

	changed, err := s.repo.Enrollment().TransitionStatus(ctx, nil, id, models.EnrollmentActive, models.EnrollmentPending)
	if err != nil {
		return nil, err
	}
	if !changed {
		// lost a race; report the state that won
		current, err := s.repo.Enrollment().GetByID(ctx, nil, id)
		if err != nil {
			return nil, mapRepoError(err, "Enrollment not found", "")
		}
		if err := activationBlocked(current.Status); err != nil {
			return nil, err
		}
		return nil, BadRequest("Enrollment cannot be activated")
	}

	enrollment.Status = models.EnrollmentActive
	s.logger.Info("Enrollment activated", "enrollment_id", id, "admin_id", adminID)

	dispatch(ctx, s.notifier, s.logger, notification{
		userID:  enrollment.UserID,
		kind:    models.NotificationEnrollmentActive,
		title:   "Enrollment activated",
		message: "Your enrollment is now active. Happy learning!",
		data:    map[string]interface{}{"enrollmentId": enrollment.ID, "courseId": enrollment.CourseID},
	})

	return enrollment, nil
}

func activationBlocked(status models.EnrollmentStatus) error {
	switch status {
	case models.EnrollmentActive:
		return BadRequest("Enrollment is already active")
	case models.EnrollmentCancelled:
		return BadRequest("Cancelled enrollment cannot be activated; a new payment is required")
	}
	return nil
}

func (s *enrollmentService) Cancel(ctx context.Context, id uint, adminID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Enrollment not found", "")
	}
	if enrollment.Status == models.EnrollmentCancelled {
		return nil, BadRequest("Enrollment is already cancelled")
	}

	changed, err := s.repo.Enrollment().TransitionStatus(ctx, nil, id, models.EnrollmentCancelled, models.EnrollmentPending, models.EnrollmentActive)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, BadRequest("Enrollment is already cancelled")
	}

	enrollment.Status = models.EnrollmentCancelled
	s.logger.Info("Enrollment cancelled", "enrollment_id", id, "admin_id", adminID)
	return enrollment, nil
}

func (s *enrollmentService) ListMine(ctx context.Context, userID string) ([]models.Enrollment, error) {
	return s.repo.Enrollment().ListByUser(ctx, nil, userID)
}

func (s *enrollmentService) List(ctx context.Context, query *ListQuery) (*EnrollmentListResponse, error) {
	filters, err := s.filters(query)
	if err != nil {
		return nil, err
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	return &EnrollmentListResponse{Enrollments: enrollments, Total: total}, nil
}

func (s *enrollmentService) filters(query *ListQuery) (repositories.EnrollmentFilters, error) {
	if err := s.validator.Validate(query); err != nil {
		return repositories.EnrollmentFilters{}, err
	}

	filters := repositories.EnrollmentFilters{Limit: clampLimit(query.Limit), Offset: query.Offset}
	if query.Status != "" {
		status := models.EnrollmentStatus(strings.ToUpper(query.Status))
		switch status {
		case models.EnrollmentPending, models.EnrollmentActive, models.EnrollmentCancelled:
			filters.Status = &status
		default:
			return filters, BadRequest("Unknown enrollment status %q", query.Status)
		}
	}
	if query.CourseID != 0 {
		filters.CourseID = &query.CourseID
	}
	if query.UserID != "" {
		filters.UserID = &query.UserID
	}
	return filters, nil
}

// ExportXLSX renders every enrollment matching query, one row each.
func (s *enrollmentService) ExportXLSX(ctx context.Context, query *ListQuery) ([]byte, error) {
	filters, err := s.filters(query)
	if err != nil {
		return nil, err
	}
	filters.Limit = exportPage
	filters.Offset = 0

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Enrollment ID", "Student", "Email", "Course", "Status", "Enrolled By", "Created At"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for row-2 < exportMaxRows {
		page, total, err := s.repo.Enrollment().List(ctx, nil, filters)
		if err != nil {
			return nil, err
		}

		for _, e := range page {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			values := exportRow(e)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}

		filters.Offset += len(page)
		if len(page) == 0 || int64(filters.Offset) >= total {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Enrollments exported", "rows", row-2)
	return buf.Bytes(), nil
}

func exportRow(e models.Enrollment) []interface{} {
	var name, email, course, enrolledBy string
	if e.User != nil {
		name, email = e.User.FullName, e.User.Email
	}
	if e.Course != nil {
		course = e.Course.Title
	}
	if e.EnrolledByID != nil {
		enrolledBy = *e.EnrolledByID
	}
	return []interface{}{e.ID, name, email, course, string(e.Status), enrolledBy, e.CreatedAt.Format("2006-01-02 15:04:05")}
}
