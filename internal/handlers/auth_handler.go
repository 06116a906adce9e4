package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService  services.AuthService
	auditService services.AuditService
}

func NewAuthHandler(authService services.AuthService, auditService services.AuditService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  NewBaseHandler(logger),
		authService:  authService,
		auditService: auditService,
	}
}

// Register creates a password account and returns an access token.
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, resp)
}

// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// RequestOTP always answers with the same message so the endpoint does not
// reveal which emails hold accounts.
// @Router /auth/otp/request [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req services.OTPRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.RequestOTP(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondMessage(c, "A login code has been sent if the address can receive mail")
}

// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req services.OTPVerifyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req services.GoogleLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.GoogleLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, user)
}

// ===== ADMIN =====

// @Router /admin/users [post]
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req services.CreateAdminRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authService.CreateAdmin(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, user)
}

// @Router /admin/users/{id}/deactivate [patch]
func (h *AuthHandler) Deactivate(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	userID := c.Param("id")
	if userID == "" {
		abortWithError(c, http.StatusBadRequest, "Invalid id", nil)
		return
	}

	h.LogRequest(c, "Deactivating user", "user_id", userID)
	if err := h.authService.Deactivate(c.Request.Context(), userID, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondMessage(c, "User deactivated")
}

// ListAuditLogs lists recent admin actions, optionally for one actor.
// @Router /admin/audit-logs [get]
func (h *AuthHandler) ListAuditLogs(c *gin.Context) {
	logs, err := h.auditService.ListByActor(c.Request.Context(), c.Query("actorId"), h.parseIntQuery(c, "limit", 50))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, logs)
}
