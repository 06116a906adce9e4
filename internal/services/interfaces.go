package services

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID string
	Role   models.UserRole
}

// ===== REQUEST/RESPONSE DTOs =====

type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type OTPRequest = validator.OTPRequest
type OTPVerifyRequest = validator.OTPVerifyRequest
type GoogleLoginRequest = validator.GoogleLoginRequest
type CreateAdminRequest = validator.CreateAdminRequest

type CourseCreateRequest = validator.CourseCreateRequest
type CourseUpdateRequest = validator.CourseUpdateRequest
type CourseListQuery = validator.CourseListQuery

type ModuleRequest = validator.ModuleRequest
type LessonCreateRequest = validator.LessonCreateRequest
type LessonUpdateRequest = validator.LessonUpdateRequest
type QuizRequest = validator.QuizRequest
type AssignmentRequest = validator.AssignmentRequest
type SubmitAssignmentRequest = validator.SubmitAssignmentRequest
type GradeSubmissionRequest = validator.GradeSubmissionRequest

type AdminEnrollRequest = validator.AdminEnrollRequest
type UploadSlipRequest = validator.UploadSlipRequest
type EnrollmentRequestCreate = validator.EnrollmentRequestCreate
type ListQuery = validator.ListQuery

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type CourseListResponse struct {
	Courses []models.Course `json:"courses"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type CourseProgressResponse struct {
	CourseID           uint    `json:"courseId"`
	TotalLessons       int     `json:"totalLessons"`
	CompletedLessons   int     `json:"completedLessons"`
	Percent            float64 `json:"percent"`
	CompletedLessonIDs []uint  `json:"completedLessonIds"`
}

type EnrollmentListResponse struct {
	Enrollments []models.Enrollment `json:"enrollments"`
	Total       int64               `json:"total"`
}

type PaymentListResponse struct {
	Payments []models.Payment `json:"payments"`
	Total    int64            `json:"total"`
}

type EnrollmentRequestListResponse struct {
	Requests []models.EnrollmentRequest `json:"requests"`
	Total    int64                      `json:"total"`
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
}

// ===== SERVICE INTERFACES =====

type AuthorizationService interface {
	// Authorize resolves the resource's owning course and checks the caller
	// may mutate it. Missing resources return ErrNotFound, refusals ErrForbidden.
	Authorize(ctx context.Context, kind repositories.ResourceKind, resourceID uint, caller Caller) (*repositories.OwnershipProjection, error)
	CanViewCourseContent(ctx context.Context, courseID uint, caller Caller) error
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RequestOTP(ctx context.Context, req *OTPRequest) error
	VerifyOTP(ctx context.Context, req *OTPVerifyRequest) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error)
	CreateAdmin(ctx context.Context, req *CreateAdminRequest, caller Caller) (*models.User, error)
	Deactivate(ctx context.Context, userID string, caller Caller) error

	// ParseToken validates a locally issued access token.
	ParseToken(token string) (*Caller, error)
	// ResolveExternalUser maps an SSO identity onto a local account, creating it if needed.
	ResolveExternalUser(ctx context.Context, email, fullName string, role models.UserRole) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type CourseService interface {
	Create(ctx context.Context, req *CourseCreateRequest, caller Caller) (*models.Course, error)
	Update(ctx context.Context, id uint, req *CourseUpdateRequest, caller Caller) (*models.Course, error)
	Publish(ctx context.Context, id uint, caller Caller) error
	Unpublish(ctx context.Context, id uint, caller Caller) error
	Delete(ctx context.Context, id uint, caller Caller) error
	ListPublished(ctx context.Context, query *CourseListQuery) (*CourseListResponse, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
}

type ContentService interface {
	GetCourseContent(ctx context.Context, courseID uint, caller Caller) (*models.Course, error)

	CreateModule(ctx context.Context, courseID uint, req *ModuleRequest, caller Caller) (*models.CourseModule, error)
	UpdateModule(ctx context.Context, id uint, req *ModuleRequest, caller Caller) (*models.CourseModule, error)
	DeleteModule(ctx context.Context, id uint, caller Caller) error
	ReorderModule(ctx context.Context, id uint, direction validator.Direction, caller Caller) error

	CreateLesson(ctx context.Context, moduleID uint, req *LessonCreateRequest, caller Caller) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, id uint, req *LessonUpdateRequest, caller Caller) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id uint, caller Caller) error
	ReorderLesson(ctx context.Context, id uint, direction validator.Direction, caller Caller) error

	UpdateQuiz(ctx context.Context, id uint, req *QuizRequest, caller Caller) (*models.Quiz, error)
	UpdateAssignment(ctx context.Context, id uint, req *AssignmentRequest, caller Caller) (*models.Assignment, error)
	ListSubmissions(ctx context.Context, assignmentID uint, caller Caller) ([]models.AssignmentSubmission, error)
	GradeSubmission(ctx context.Context, submissionID uint, req *GradeSubmissionRequest, caller Caller) (*models.AssignmentSubmission, error)

	SubmitAssignment(ctx context.Context, assignmentID uint, req *SubmitAssignmentRequest, userID string) (*models.AssignmentSubmission, error)
	CompleteLesson(ctx context.Context, lessonID uint, userID string) (*models.LessonProgress, error)
	GetCourseProgress(ctx context.Context, courseID uint, userID string) (*CourseProgressResponse, error)
}

type EnrollmentService interface {
	EnrollSelf(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error)
	EnrollStudent(ctx context.Context, adminID string, req *AdminEnrollRequest) (*models.Enrollment, error)
	Activate(ctx context.Context, id uint, adminID string) (*models.Enrollment, error)
	Cancel(ctx context.Context, id uint, adminID string) (*models.Enrollment, error)
	ListMine(ctx context.Context, userID string) ([]models.Enrollment, error)
	List(ctx context.Context, query *ListQuery) (*EnrollmentListResponse, error)
	ExportXLSX(ctx context.Context, query *ListQuery) ([]byte, error)
}

type PaymentService interface {
	UploadSlip(ctx context.Context, userID string, courseID uint, req *UploadSlipRequest) (*models.Payment, error)
	Verify(ctx context.Context, id uint, adminID string) (*models.Payment, error)
	Reject(ctx context.Context, id uint, adminID string) (*models.Payment, error)
	ListMine(ctx context.Context, userID string) ([]models.Payment, error)
	List(ctx context.Context, query *ListQuery) (*PaymentListResponse, error)
}

type EnrollmentRequestService interface {
	Create(ctx context.Context, userID string, req *EnrollmentRequestCreate) (*models.EnrollmentRequest, error)
	Approve(ctx context.Context, id uint, adminID string, note *string) (*models.EnrollmentRequest, error)
	Reject(ctx context.Context, id uint, adminID string, note *string) (*models.EnrollmentRequest, error)
	ListMine(ctx context.Context, userID string) ([]models.EnrollmentRequest, error)
	List(ctx context.Context, query *ListQuery) (*EnrollmentRequestListResponse, error)
}

// Notifier is the narrow dispatch contract the workflows depend on.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string, data map[string]interface{}) error
}

type NotificationService interface {
	Notifier
	ListMine(ctx context.Context, userID string, limit, offset int) (*NotificationListResponse, error)
	MarkRead(ctx context.Context, id uint, userID string) error
}

type AuditService interface {
	Record(ctx context.Context, entry *models.AdminAuditLog) error
	ListByActor(ctx context.Context, actorID string, limit int) ([]models.AdminAuditLog, error)
}

// ServiceManager manages all services
type ServiceManager interface {
	Authorization() AuthorizationService
	Auth() AuthService
	Course() CourseService
	Content() ContentService
	Enrollment() EnrollmentService
	Payment() PaymentService
	EnrollmentRequest() EnrollmentRequestService
	Notification() NotificationService
	Audit() AuditService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
