package repositories

import "context"

// Repository groups every entity repository behind one handle.
type Repository interface {
	// Identity
	User() UserRepository
	OTP() OTPRepository

	// Catalog & content
	Course() CourseRepository
	Module() ModuleRepository
	Lesson() LessonRepository
	Quiz() QuizRepository
	Assignment() AssignmentRepository
	Submission() SubmissionRepository
	Progress() ProgressRepository

	// Enrollment lifecycle
	Enrollment() EnrollmentRepository
	Payment() PaymentRepository
	EnrollmentRequest() EnrollmentRequestRepository

	// Cross-cutting
	Notification() NotificationRepository
	Audit() AuditRepository
	Ownership() OwnershipRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
