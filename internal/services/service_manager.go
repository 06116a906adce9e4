package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/email"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/kvstore"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// Dependencies are the collaborators shared across services. Nil values fall
// back to in-process defaults.
type Dependencies struct {
	Cache          *cache.CacheManager
	Publisher      events.EventPublisher
	KV             kvstore.Store
	Tokens         *TokenManager
	GoogleVerifier GoogleTokenVerifier
	MXLookup       MXLookup
	Mailer         email.Sender
	OTP            config.OTPConfig
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	deps      Dependencies

	// Service instances
	authorizationService     AuthorizationService
	authService              AuthService
	courseService            CourseService
	contentService           ContentService
	enrollmentService        EnrollmentService
	paymentService           PaymentService
	enrollmentRequestService EnrollmentRequestService
	notificationService      NotificationService
	auditService             AuditService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps Dependencies) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		deps:      deps,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if sm.deps.Tokens == nil {
		return fmt.Errorf("failed to initialize services: token manager is required")
	}
	if sm.deps.Cache == nil {
		sm.deps.Cache = cache.NewCacheManager(nil)
	}

	sm.notificationService = NewNotificationService(sm.repo, sm.deps.Publisher, sm.logger)
	sm.auditService = NewAuditService(sm.repo, sm.logger)
	sm.authorizationService = NewAuthorizationService(sm.repo, sm.logger)

	sm.authService = NewAuthService(sm.repo, AuthDependencies{
		Tokens:   sm.deps.Tokens,
		Google:   sm.deps.GoogleVerifier,
		MXLookup: sm.deps.MXLookup,
		KV:       sm.deps.KV,
		Mailer:   sm.deps.Mailer,
		OTP:      sm.deps.OTP,
	}, sm.logger, sm.validator)

	sm.courseService = NewCourseService(sm.repo, sm.deps.Cache, sm.logger, sm.validator)
	sm.contentService = NewContentService(sm.repo, sm.db, sm.authorizationService, sm.deps.Cache, sm.logger, sm.validator)

	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.db, sm.notificationService, sm.logger, sm.validator)
	sm.paymentService = NewPaymentService(sm.repo, sm.db, sm.notificationService, sm.logger, sm.validator)
	sm.enrollmentRequestService = NewEnrollmentRequestService(sm.repo, sm.db, sm.notificationService, sm.logger, sm.validator)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) ready() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Authorization() AuthorizationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authorizationService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.courseService
}

func (sm *serviceManager) Content() ContentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.contentService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.enrollmentService
}

func (sm *serviceManager) Payment() PaymentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.paymentService
}

func (sm *serviceManager) EnrollmentRequest() EnrollmentRequestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.enrollmentRequestService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.notificationService
}

func (sm *serviceManager) Audit() AuditService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.auditService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	// running without redis is allowed
	if err := sm.deps.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
