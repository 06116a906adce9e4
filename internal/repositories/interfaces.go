package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Search string
	Limit  int
	Offset int
}

type EnrollmentFilters struct {
	Status   *models.EnrollmentStatus
	CourseID *uint
	UserID   *string
	Limit    int
	Offset   int
}

type PaymentFilters struct {
	Status   *models.PaymentStatus
	CourseID *uint
	UserID   *string
	Limit    int
	Offset   int
}

type EnrollmentRequestFilters struct {
	Status   *models.RequestStatus
	CourseID *uint
	UserID   *string
	Limit    int
	Offset   int
}

// ===== OWNERSHIP =====

type ResourceKind string

const (
	ResourceCourse     ResourceKind = "course"
	ResourceModule     ResourceKind = "module"
	ResourceLesson     ResourceKind = "lesson"
	ResourceQuiz       ResourceKind = "quiz"
	ResourceAssignment ResourceKind = "assignment"
)

// OwnershipProjection is the flattened ownership chain of a content resource.
type OwnershipProjection struct {
	ResourceID uint
	CourseID   uint
	OwnerID    string
}

type OwnershipRepository interface {
	// Resolve walks resource -> course in one query. Soft-deleted courses and
	// missing rows at any level return gorm.ErrRecordNotFound.
	Resolve(ctx context.Context, tx *gorm.DB, kind ResourceKind, id uint) (*OwnershipProjection, error)
}

// ===== IDENTITY =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	SetActive(ctx context.Context, tx *gorm.DB, id string, active bool) error
	TouchLogin(ctx context.Context, tx *gorm.DB, id string, at time.Time) error
}

type OTPRepository interface {
	Create(ctx context.Context, tx *gorm.DB, otp *models.OTPCode) error
	// GetLatestActive returns the newest unused, unexpired code for email.
	GetLatestActive(ctx context.Context, tx *gorm.DB, email, purpose string, now time.Time) (*models.OTPCode, error)
	MarkUsed(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
	// InvalidateActive marks every open code for email used, so only the newest one works.
	InvalidateActive(ctx context.Context, tx *gorm.DB, email, purpose string, at time.Time) error
	DeleteExpired(ctx context.Context, tx *gorm.DB, before time.Time) (int64, error)
}

// ===== CATALOG & CONTENT =====

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetPublishedBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error)
	// GetWithContent loads modules and lessons (with side records) in order.
	GetWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	SetStatus(ctx context.Context, tx *gorm.DB, id uint, status models.CourseStatus) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error
	ListPublished(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]models.Course, int64, error)
}

// SiblingRepository is the ordering contract shared by modules (scoped to a
// course) and lessons (scoped to a module).
type SiblingRepository interface {
	NextOrder(ctx context.Context, tx *gorm.DB, parentID uint) (int, error)
	// FindAdjacent returns the sibling immediately before (up) or after
	// (down) order, or gorm.ErrRecordNotFound at a boundary.
	FindAdjacent(ctx context.Context, tx *gorm.DB, parentID uint, order int, up bool) (id uint, adjacentOrder int, err error)
	UpdateOrder(ctx context.Context, tx *gorm.DB, id uint, order int) error
}

type ModuleRepository interface {
	SiblingRepository
	Create(ctx context.Context, tx *gorm.DB, module *models.CourseModule) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseModule, error)
	UpdateTitle(ctx context.Context, tx *gorm.DB, id uint, title string) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type LessonRepository interface {
	SiblingRepository
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	ListIDsByModule(ctx context.Context, tx *gorm.DB, moduleID uint) ([]uint, error)
	ListIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error
}

type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uint) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error)
	Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	ListIDsByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentSubmission, error)
	ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]models.AssignmentSubmission, error)
	Grade(ctx context.Context, tx *gorm.DB, id uint, score int, feedback *string, graderID string, at time.Time) error
	DeleteByAssignmentIDs(ctx context.Context, tx *gorm.DB, assignmentIDs []uint) error
}

type ProgressRepository interface {
	// MarkCompleted inserts or updates the (user, lesson) row.
	MarkCompleted(ctx context.Context, tx *gorm.DB, userID string, lessonID uint, at time.Time) (*models.LessonProgress, error)
	ListCompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID string, lessonIDs []uint) ([]uint, error)
	DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uint) error
}

// ===== ENROLLMENT LIFECYCLE =====

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	// GetByUserAndCourse returns (nil, nil) when no row exists.
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.Enrollment, error)
	// TransitionStatus updates status only if the row is currently in one of
	// from. It reports whether a row changed.
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, to models.EnrollmentStatus, from ...models.EnrollmentStatus) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.Enrollment, error)
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]models.Enrollment, int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Payment, error)
	HasPending(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error)
	// Review moves a PENDING payment to status. It reports whether a row changed.
	Review(ctx context.Context, tx *gorm.DB, id uint, status models.PaymentStatus, reviewerID string, at time.Time) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.Payment, error)
	List(ctx context.Context, tx *gorm.DB, filters PaymentFilters) ([]models.Payment, int64, error)
}

type EnrollmentRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *models.EnrollmentRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EnrollmentRequest, error)
	HasPending(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error)
	Review(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus, note *string, reviewerID string, at time.Time) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.EnrollmentRequest, error)
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentRequestFilters) ([]models.EnrollmentRequest, int64, error)
}

// ===== CROSS-CUTTING =====

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit, offset int) ([]models.Notification, int64, error)
	// MarkRead reports whether the notification existed for userID.
	MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string, at time.Time) (bool, error)
}

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.AdminAuditLog) error
	ListByActor(ctx context.Context, tx *gorm.DB, actorID string, limit int) ([]models.AdminAuditLog, error)
}
