package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type paymentService struct {
	txRunner
	repo      repositories.Repository
	notifier  Notifier
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewPaymentService(repo repositories.Repository, db *gorm.DB, notifier Notifier, logger *slog.Logger, validator *validator.Validator) PaymentService {
	return &paymentService{
		txRunner:  txRunner{db: db},
		repo:      repo,
		notifier:  notifier,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// UploadSlip records a PENDING payment and puts the enrollment for the pair
// into PENDING, creating it or reopening a cancelled one. Both rows commit
// together or not at all.
func (s *paymentService) UploadSlip(ctx context.Context, userID string, courseID uint, req *UploadSlipRequest) (*models.Payment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Uploading payment slip", "user_id", userID, "course_id", courseID)

	var payment *models.Payment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		course, err := loadEnrollableCourse(ctx, tx, s.repo, courseID)
		if err != nil {
			return err
		}

		enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if enrollment != nil && enrollment.Status == models.EnrollmentActive {
			return Conflict("Already enrolled in this course")
		}

		pending, err := s.repo.Payment().HasPending(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if pending {
			return Conflict("A payment for this course is already pending review")
		}

		payment = &models.Payment{
			UserID:   userID,
			CourseID: courseID,
			Amount:   course.EffectivePrice(),
			SlipURL:  req.SlipURL,
			Status:   models.PaymentPending,
		}
		if err := s.repo.Payment().Create(ctx, tx, payment); err != nil {
			return mapRepoError(err, "", "A payment for this course is already pending review")
		}

		switch {
		case enrollment == nil:
			err := s.repo.Enrollment().Create(ctx, tx, &models.Enrollment{
				UserID:   userID,
				CourseID: courseID,
				Status:   models.EnrollmentPending,
			})
			if err != nil {
				return mapRepoError(err, "", "Already enrolled in this course")
			}
		case enrollment.Status == models.EnrollmentCancelled:
			if _, err := s.repo.Enrollment().TransitionStatus(ctx, tx, enrollment.ID, models.EnrollmentPending, models.EnrollmentCancelled); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment slip uploaded", "payment_id", payment.ID, "user_id", userID, "course_id", courseID)
	return payment, nil
}

func (s *paymentService) Verify(ctx context.Context, id uint, adminID string) (*models.Payment, error) {
	payment, err := s.review(ctx, id, adminID, models.PaymentVerified, func(tx *gorm.DB, p *models.Payment) error {
		enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, tx, p.UserID, p.CourseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return s.repo.Enrollment().Create(ctx, tx, &models.Enrollment{
				UserID:   p.UserID,
				CourseID: p.CourseID,
				Status:   models.EnrollmentActive,
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
		userID:  payment.UserID,
		kind:    models.NotificationPaymentVerified,
		title:   "Payment verified",
		message: "Your payment has been verified and your enrollment is now active.",
		data:    map[string]interface{}{"paymentId": payment.ID, "courseId": payment.CourseID},
	})

	return payment, nil
}

// Reject cancels the enrollment only while it is still PENDING; an enrollment
// activated through another path stays active.
func (s *paymentService) Reject(ctx context.Context, id uint, adminID string) (*models.Payment, error) {
	payment, err := s.review(ctx, id, adminID, models.PaymentRejected, func(tx *gorm.DB, p *models.Payment) error {
		enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, tx, p.UserID, p.CourseID)
		if err != nil || enrollment == nil {
			return err
		}
		_, err = s.repo.Enrollment().TransitionStatus(ctx, tx, enrollment.ID, models.EnrollmentCancelled, models.EnrollmentPending)
		return err
	})
	if err != nil {
		return nil, err
	}

	dispatch(ctx, s.notifier, s.logger, notification{
		userID:  payment.UserID,
		kind:    models.NotificationPaymentRejected,
		title:   "Payment rejected",
		message: "Your payment could not be verified. Please upload a new payment slip.",
		data:    map[string]interface{}{"paymentId": payment.ID, "courseId": payment.CourseID},
	})

	return payment, nil
}

// review moves a PENDING payment to status and runs then against the
// enrollment in the same transaction.
func (s *paymentService) review(ctx context.Context, id uint, adminID string, status models.PaymentStatus, then func(tx *gorm.DB, p *models.Payment) error) (*models.Payment, error) {
	var payment *models.Payment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		p, err := s.repo.Payment().GetByID(ctx, tx, id)
		if err != nil {
			return mapRepoError(err, "Payment not found", "")
		}
		if p.Status != models.PaymentPending {
			return alreadyReviewed(p.Status)
		}

		at := s.now()
		changed, err := s.repo.Payment().Review(ctx, tx, id, status, adminID, at)
		if err != nil {
			return err
		}
		if !changed {
			current, err := s.repo.Payment().GetByID(ctx, tx, id)
			if err != nil {
				return mapRepoError(err, "Payment not found", "")
			}
			return alreadyReviewed(current.Status)
		}

		if err := then(tx, p); err != nil {
			if repositories.IsDuplicateError(err) {
				return Conflict("Already enrolled in this course")
			}
			return fmt.Errorf("failed to update enrollment for payment %d: %w", id, err)
		}

		p.Status = status
		p.ReviewedByID = &adminID
		p.ReviewedAt = &at
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment reviewed", "payment_id", id, "status", status, "admin_id", adminID)
	return payment, nil
}

func alreadyReviewed(status models.PaymentStatus) error {
	return BadRequest("Payment has already been %s", strings.ToLower(string(status)))
}

func (s *paymentService) ListMine(ctx context.Context, userID string) ([]models.Payment, error) {
	return s.repo.Payment().ListByUser(ctx, nil, userID)
}

func (s *paymentService) List(ctx context.Context, query *ListQuery) (*PaymentListResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	filters := repositories.PaymentFilters{Limit: clampLimit(query.Limit), Offset: query.Offset}
	if query.Status != "" {
		status := models.PaymentStatus(strings.ToUpper(query.Status))
		switch status {
		case models.PaymentPending, models.PaymentVerified, models.PaymentRejected:
			filters.Status = &status
		default:
			return nil, BadRequest("Unknown payment status %q", query.Status)
		}
	}
	if query.CourseID != 0 {
		filters.CourseID = &query.CourseID
	}
	if query.UserID != "" {
		filters.UserID = &query.UserID
	}

	payments, total, err := s.repo.Payment().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	return &PaymentListResponse{Payments: payments, Total: total}, nil
}
