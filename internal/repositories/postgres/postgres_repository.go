package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	user              repositories.UserRepository
	otp               repositories.OTPRepository
	course            repositories.CourseRepository
	module            repositories.ModuleRepository
	lesson            repositories.LessonRepository
	quiz              repositories.QuizRepository
	assignment        repositories.AssignmentRepository
	submission        repositories.SubmissionRepository
	progress          repositories.ProgressRepository
	enrollment        repositories.EnrollmentRepository
	payment           repositories.PaymentRepository
	enrollmentRequest repositories.EnrollmentRequestRepository
	notification      repositories.NotificationRepository
	audit             repositories.AuditRepository
	ownership         repositories.OwnershipRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	// CacheTTL overrides the catalog cache lifetime when positive.
	CacheTTL time.Duration
}

// NewPostgreSQLRepository creates the repository aggregate
func NewPostgreSQLRepository(config RepositoryConfig) *PostgreSQLRepository {
	cacheManager := cache.NewCacheManager(config.RedisClient)
	if config.CacheTTL > 0 {
		cacheManager.CourseTTL = config.CacheTTL
	}
	db := config.DB

	return &PostgreSQLRepository{
		db:           db,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,

		user:              NewUserPostgreSQL(db),
		otp:               NewOTPPostgreSQL(db),
		course:            NewCoursePostgreSQL(db, cacheManager),
		module:            NewModulePostgreSQL(db),
		lesson:            NewLessonPostgreSQL(db),
		quiz:              NewQuizPostgreSQL(db),
		assignment:        NewAssignmentPostgreSQL(db),
		submission:        NewSubmissionPostgreSQL(db),
		progress:          NewProgressPostgreSQL(db),
		enrollment:        NewEnrollmentPostgreSQL(db),
		payment:           NewPaymentPostgreSQL(db),
		enrollmentRequest: NewEnrollmentRequestPostgreSQL(db),
		notification:      NewNotificationPostgreSQL(db),
		audit:             NewAuditPostgreSQL(db),
		ownership:         NewOwnershipPostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgreSQLRepository) OTP() repositories.OTPRepository               { return r.otp }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository         { return r.course }
func (r *PostgreSQLRepository) Module() repositories.ModuleRepository         { return r.module }
func (r *PostgreSQLRepository) Lesson() repositories.LessonRepository         { return r.lesson }
func (r *PostgreSQLRepository) Quiz() repositories.QuizRepository             { return r.quiz }
func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository { return r.submission }
func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository     { return r.progress }
func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *PostgreSQLRepository) Payment() repositories.PaymentRepository       { return r.payment }
func (r *PostgreSQLRepository) EnrollmentRequest() repositories.EnrollmentRequestRepository {
	return r.enrollmentRequest
}
func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}
func (r *PostgreSQLRepository) Audit() repositories.AuditRepository         { return r.audit }
func (r *PostgreSQLRepository) Ownership() repositories.OwnershipRepository { return r.ownership }

// CacheManager exposes the catalog cache so services can invalidate it after commit
func (r *PostgreSQLRepository) CacheManager() *cache.CacheManager {
	return r.cacheManager
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection. The redis client is owned by main.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// RepositoryManager implements repositories.RepositoryManager
type RepositoryManager struct {
	config RepositoryConfig
	repo   *PostgreSQLRepository
}

func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connections and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) CacheManager() *cache.CacheManager {
	if rm.repo == nil {
		return cache.NewCacheManager(nil)
	}
	return rm.repo.CacheManager()
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
