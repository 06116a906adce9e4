package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries what every domain handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

func abortWithError(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message, Details: details})
}

// handleServiceError maps service failures onto HTTP statuses. Unknown
// errors are logged and reported as 500 without their text.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		abortWithError(c, http.StatusBadRequest, "Validation failed", validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		abortWithError(c, http.StatusForbidden, "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	var serviceError *services.ServiceError
	if errors.As(err, &serviceError) {
		abortWithError(c, statusForKind(serviceError.Kind), serviceError.Message, nil)
		return
	}

	h.LogError(c, err, "Unexpected service error", "path", c.FullPath())
	abortWithError(c, http.StatusInternalServerError, "Internal server error", nil)
}

func statusForKind(kind error) int {
	switch {
	case errors.Is(kind, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, services.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, services.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the body into req and answers 400 on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}

func (h *BaseHandler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return false
	}
	return true
}

// parseIDParam returns 0 after answering 400 when the param is not a positive integer.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid "+param, nil)
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(param))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetCallerFromContext returns the identity set by the auth middleware.
func GetCallerFromContext(c *gin.Context) (services.Caller, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return services.Caller{}, false
	}
	role, _ := c.Get(ContextUserRole)
	r, _ := role.(models.UserRole)
	return services.Caller{UserID: userID, Role: r}, true
}

// caller is GetCallerFromContext for routes behind Authenticate; it answers
// 401 when the identity is missing.
func (h *BaseHandler) caller(c *gin.Context) (services.Caller, bool) {
	caller, ok := GetCallerFromContext(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
	}
	return caller, ok
}
