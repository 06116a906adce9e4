package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type EnrollmentRequestHandler struct {
	BaseHandler
	requestService services.EnrollmentRequestService
	validator      *validator.Validator
}

func NewEnrollmentRequestHandler(requestService services.EnrollmentRequestService, validator *validator.Validator, logger utils.Logger) *EnrollmentRequestHandler {
	return &EnrollmentRequestHandler{
		BaseHandler:    NewBaseHandler(logger),
		requestService: requestService,
		validator:      validator,
	}
}

// @Router /enrollment-requests [post]
func (h *EnrollmentRequestHandler) Create(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req services.EnrollmentRequestCreate
	if !h.bindJSON(c, &req) {
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, request)
}

// @Router /enrollment-requests/me [get]
func (h *EnrollmentRequestHandler) ListMine(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	requests, err := h.requestService.ListMine(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, requests)
}

// @Router /admin/enrollment-requests [get]
func (h *EnrollmentRequestHandler) List(c *gin.Context) {
	var query services.ListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.requestService.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// @Router /admin/enrollment-requests/{id}/approve [patch]
func (h *EnrollmentRequestHandler) Approve(c *gin.Context) {
	h.review(c, h.requestService.Approve)
}

// @Router /admin/enrollment-requests/{id}/reject [patch]
func (h *EnrollmentRequestHandler) Reject(c *gin.Context) {
	h.review(c, h.requestService.Reject)
}

// review accepts an optional {"adminNote": "..."} body.
func (h *EnrollmentRequestHandler) review(c *gin.Context, action func(context.Context, uint, string, *string) (*models.EnrollmentRequest, error)) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var body validator.ReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.handleServiceError(c, services.BadRequest("Invalid request payload"))
		return
	}
	if err := h.validator.Validate(&body); err != nil {
		h.handleServiceError(c, err)
		return
	}

	request, err := action(c.Request.Context(), id, caller.UserID, body.AdminNote)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, request)
}
