package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
	}
}

// EnrollSelf creates a PENDING enrollment for the caller.
// @Router /enrollments/{courseId} [post]
func (h *EnrollmentHandler) EnrollSelf(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	courseID := h.parseIDParam(c, "courseId")
	if courseID == 0 {
		return
	}

	enrollment, err := h.enrollmentService.EnrollSelf(c.Request.Context(), caller.UserID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, enrollment)
}

// @Router /enrollments/me [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.ListMine(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, enrollments)
}

// @Router /enrollments/admin/enroll [post]
func (h *EnrollmentHandler) EnrollStudent(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req services.AdminEnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.enrollmentService.EnrollStudent(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, enrollment)
}

// @Router /enrollments/{id}/activate [patch]
func (h *EnrollmentHandler) Activate(c *gin.Context) {
	h.transition(c, h.enrollmentService.Activate)
}

// @Router /enrollments/{id}/cancel [patch]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.enrollmentService.Cancel)
}

// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var query services.ListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.enrollmentService.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// Export streams the filtered enrollments as an XLSX workbook.
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	var query services.ListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	data, err := h.enrollmentService.ExportXLSX(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("enrollments-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *EnrollmentHandler) transition(c *gin.Context, action func(context.Context, uint, string) (*models.Enrollment, error)) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	enrollment, err := action(c.Request.Context(), id, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, enrollment)
}
