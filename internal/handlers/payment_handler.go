package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type PaymentHandler struct {
	BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    NewBaseHandler(logger),
		paymentService: paymentService,
	}
}

// UploadSlip runs after SlipGuard, which has already read the body.
// @Router /payments/{courseId}/upload-slip [post]
func (h *PaymentHandler) UploadSlip(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseIDParam(c, "courseId")
	if courseID == 0 {
		return
	}
	var req services.UploadSlipRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	payment, err := h.paymentService.UploadSlip(c.Request.Context(), caller.UserID, courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, payment)
}

// @Router /payments/me [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListMine(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, payments)
}

// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var query services.ListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.paymentService.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// @Router /payments/{id}/verify [patch]
func (h *PaymentHandler) Verify(c *gin.Context) {
	h.review(c, h.paymentService.Verify)
}

// @Router /payments/{id}/reject [patch]
func (h *PaymentHandler) Reject(c *gin.Context) {
	h.review(c, h.paymentService.Reject)
}

func (h *PaymentHandler) review(c *gin.Context, action func(context.Context, uint, string) (*models.Payment, error)) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	payment, err := action(c.Request.Context(), id, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, payment)
}
