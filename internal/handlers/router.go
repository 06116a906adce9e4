package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/kvstore"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type HandlerManager struct {
	authHandler              *AuthHandler
	courseHandler            *CourseHandler
	contentHandler           *ContentHandler
	enrollmentHandler        *EnrollmentHandler
	paymentHandler           *PaymentHandler
	enrollmentRequestHandler *EnrollmentRequestHandler
	notificationHandler      *NotificationHandler
	authMiddleware           *AuthMiddleware
	slipGuard                *SlipGuard

	serviceManager services.ServiceManager
	store          kvstore.Store
	upload         config.UploadConfig
	authRateLimit  int
	logger         utils.Logger
}

// HandlerOptions carries the non-service collaborators of the HTTP layer.
type HandlerOptions struct {
	Store  kvstore.Store
	Upload config.UploadConfig

	// AuthRateLimit is requests per minute per client on /auth; 0 disables it.
	AuthRateLimit int

	// External verifies SSO tokens; nil disables the fallback.
	External ExternalTokenParser
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	opts HandlerOptions,
) *HandlerManager {
	return &HandlerManager{
		authHandler:              NewAuthHandler(serviceManager.Auth(), serviceManager.Audit(), logger),
		courseHandler:            NewCourseHandler(serviceManager.Course(), logger),
		contentHandler:           NewContentHandler(serviceManager.Content(), logger),
		enrollmentHandler:        NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		paymentHandler:           NewPaymentHandler(serviceManager.Payment(), logger),
		enrollmentRequestHandler: NewEnrollmentRequestHandler(serviceManager.EnrollmentRequest(), validator, logger),
		notificationHandler:      NewNotificationHandler(serviceManager.Notification(), logger),
		authMiddleware:           NewAuthMiddleware(serviceManager.Auth(), opts.External, logger),
		slipGuard:                NewSlipGuard(opts.Upload, logger),

		serviceManager: serviceManager,
		store:          opts.Store,
		upload:         opts.Upload,
		authRateLimit:  opts.AuthRateLimit,
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	admins := hm.authMiddleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	superAdmin := hm.authMiddleware.RequireRole(models.RoleSuperAdmin)
	students := hm.authMiddleware.RequireRole(models.RoleStudent)

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	if hm.authRateLimit > 0 {
		auth.Use(RateLimitMiddleware(hm.store, "auth", hm.authRateLimit, time.Minute, hm.logger))
	}
	{
		auth.POST("/register", hm.authHandler.Register)
		auth.POST("/login", hm.authHandler.Login)
		auth.POST("/otp/request", hm.authHandler.RequestOTP)
		auth.POST("/otp/verify", hm.authHandler.VerifyOTP)
		auth.POST("/google", hm.authHandler.GoogleLogin)
	}
	v1.GET("/courses", hm.courseHandler.ListCourses)
	v1.GET("/courses/:id", hm.courseHandler.GetCourse)

	// Authenticated routes
	api := v1.Group("")
	api.Use(hm.authMiddleware.Authenticate(), AuditMiddleware(hm.serviceManager.Audit(), hm.logger))
	{
		api.GET("/auth/me", hm.authHandler.Me)

		admin := api.Group("/admin")
		{
			admin.POST("/users", superAdmin, hm.authHandler.CreateAdmin)
			admin.PATCH("/users/:id/deactivate", superAdmin, hm.authHandler.Deactivate)
			admin.GET("/audit-logs", superAdmin, hm.authHandler.ListAuditLogs)

			admin.GET("/enrollment-requests", admins, hm.enrollmentRequestHandler.List)
			admin.PATCH("/enrollment-requests/:id/approve", admins, hm.enrollmentRequestHandler.Approve)
			admin.PATCH("/enrollment-requests/:id/reject", admins, hm.enrollmentRequestHandler.Reject)
		}

		courses := api.Group("/courses")
		{
			courses.POST("", admins, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", admins, hm.courseHandler.UpdateCourse)
			courses.PATCH("/:id/publish", admins, hm.courseHandler.PublishCourse)
			courses.PATCH("/:id/unpublish", admins, hm.courseHandler.UnpublishCourse)
			courses.DELETE("/:id", admins, hm.courseHandler.DeleteCourse)

			courses.GET("/:id/content", hm.contentHandler.GetCourseContent)
			courses.POST("/:id/modules", admins, hm.contentHandler.CreateModule)
			courses.GET("/:id/progress", students, hm.contentHandler.GetCourseProgress)
		}

		modules := api.Group("/modules", admins)
		{
			modules.PUT("/:id", hm.contentHandler.UpdateModule)
			modules.DELETE("/:id", hm.contentHandler.DeleteModule)
			modules.PATCH("/:id/reorder", hm.contentHandler.ReorderModule)
			modules.POST("/:id/lessons", hm.contentHandler.CreateLesson)
		}

		lessons := api.Group("/lessons")
		{
			lessons.PUT("/:id", admins, hm.contentHandler.UpdateLesson)
			lessons.DELETE("/:id", admins, hm.contentHandler.DeleteLesson)
			lessons.PATCH("/:id/reorder", admins, hm.contentHandler.ReorderLesson)
			lessons.POST("/:id/complete", students, hm.contentHandler.CompleteLesson)
		}

		api.PUT("/quizzes/:id", admins, hm.contentHandler.UpdateQuiz)

		assignments := api.Group("/assignments")
		{
			assignments.PUT("/:id", admins, hm.contentHandler.UpdateAssignment)
			assignments.GET("/:id/submissions", admins, hm.contentHandler.ListSubmissions)
			assignments.POST("/:id/submit", students, hm.contentHandler.SubmitAssignment)
		}
		api.PATCH("/submissions/:id/grade", admins, hm.contentHandler.GradeSubmission)

		enrollments := api.Group("/enrollments")
		{
			enrollments.GET("/me", students, hm.enrollmentHandler.ListMine)
			enrollments.POST("/:courseId", students, hm.enrollmentHandler.EnrollSelf)

			enrollments.GET("", admins, hm.enrollmentHandler.List)
			enrollments.GET("/export", admins, hm.enrollmentHandler.Export)
			enrollments.POST("/admin/enroll", admins, hm.enrollmentHandler.EnrollStudent)
			enrollments.PATCH("/:id/activate", admins, hm.enrollmentHandler.Activate)
			enrollments.PATCH("/:id/cancel", admins, hm.enrollmentHandler.Cancel)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/:courseId/upload-slip",
				students,
				RateLimitMiddleware(hm.store, "upload-slip", hm.upload.RateLimit, hm.upload.RateWindow, hm.logger),
				hm.slipGuard.Middleware(),
				hm.paymentHandler.UploadSlip,
			)
			payments.GET("/me", students, hm.paymentHandler.ListMine)

			payments.GET("", admins, hm.paymentHandler.List)
			payments.PATCH("/:id/verify", admins, hm.paymentHandler.Verify)
			payments.PATCH("/:id/reject", admins, hm.paymentHandler.Reject)
		}

		requests := api.Group("/enrollment-requests", students)
		{
			requests.POST("", hm.enrollmentRequestHandler.Create)
			requests.GET("/me", hm.enrollmentRequestHandler.ListMine)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListMine)
			notifications.PATCH("/:id/read", hm.notificationHandler.MarkRead)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Message: "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":  "healthy",
			"service": "lms-service",
		},
	})
}
