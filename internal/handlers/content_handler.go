package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type ContentHandler struct {
	BaseHandler
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService, logger utils.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
	}
}

// target parses the :id param and the caller shared by every content route.
func (h *ContentHandler) target(c *gin.Context) (uint, services.Caller, bool) {
	caller, ok := h.caller(c)
	if !ok {
		return 0, caller, false
	}
	id := h.parseIDParam(c, "id")
	return id, caller, id != 0
}

// @Router /courses/{id}/content [get]
func (h *ContentHandler) GetCourseContent(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}

	course, err := h.contentService.GetCourseContent(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, course)
}

// ===== MODULES =====

// @Router /courses/{id}/modules [post]
func (h *ContentHandler) CreateModule(c *gin.Context) {
	courseID, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.ModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.contentService.CreateModule(c.Request.Context(), courseID, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, module)
}

// @Router /modules/{id} [put]
func (h *ContentHandler) UpdateModule(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.ModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.contentService.UpdateModule(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, module)
}

// DeleteModule removes the module with its lessons and their side records.
// @Router /modules/{id} [delete]
func (h *ContentHandler) DeleteModule(c *gin.Context) {
	h.contentAction(c, h.contentService.DeleteModule, "Module deleted")
}

// @Router /modules/{id}/reorder [patch]
func (h *ContentHandler) ReorderModule(c *gin.Context) {
	h.reorder(c, h.contentService.ReorderModule)
}

// ===== LESSONS =====

// @Router /modules/{id}/lessons [post]
func (h *ContentHandler) CreateLesson(c *gin.Context) {
	moduleID, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.LessonCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.contentService.CreateLesson(c.Request.Context(), moduleID, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, lesson)
}

// @Router /lessons/{id} [put]
func (h *ContentHandler) UpdateLesson(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.LessonUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.contentService.UpdateLesson(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, lesson)
}

// @Router /lessons/{id} [delete]
func (h *ContentHandler) DeleteLesson(c *gin.Context) {
	h.contentAction(c, h.contentService.DeleteLesson, "Lesson deleted")
}

// @Router /lessons/{id}/reorder [patch]
func (h *ContentHandler) ReorderLesson(c *gin.Context) {
	h.reorder(c, h.contentService.ReorderLesson)
}

// ===== QUIZZES & ASSIGNMENTS =====

// @Router /quizzes/{id} [put]
func (h *ContentHandler) UpdateQuiz(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.QuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.contentService.UpdateQuiz(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, quiz)
}

// @Router /assignments/{id} [put]
func (h *ContentHandler) UpdateAssignment(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.AssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.contentService.UpdateAssignment(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, assignment)
}

// @Router /assignments/{id}/submissions [get]
func (h *ContentHandler) ListSubmissions(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}

	submissions, err := h.contentService.ListSubmissions(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, submissions)
}

// @Router /submissions/{id}/grade [patch]
func (h *ContentHandler) GradeSubmission(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.GradeSubmissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	submission, err := h.contentService.GradeSubmission(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, submission)
}

// ===== STUDENT =====

// @Router /assignments/{id}/submit [post]
func (h *ContentHandler) SubmitAssignment(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req services.SubmitAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	submission, err := h.contentService.SubmitAssignment(c.Request.Context(), id, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, submission)
}

// @Router /lessons/{id}/complete [post]
func (h *ContentHandler) CompleteLesson(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}

	progress, err := h.contentService.CompleteLesson(c.Request.Context(), id, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, progress)
}

// @Router /courses/{id}/progress [get]
func (h *ContentHandler) GetCourseProgress(c *gin.Context) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}

	progress, err := h.contentService.GetCourseProgress(c.Request.Context(), id, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, progress)
}

// ===== HELPER METHODS =====

func (h *ContentHandler) contentAction(c *gin.Context, action func(context.Context, uint, services.Caller) error, message string) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}

	if err := action(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondMessage(c, message)
}

func (h *ContentHandler) reorder(c *gin.Context, action func(context.Context, uint, validator.Direction, services.Caller) error) {
	id, caller, ok := h.target(c)
	if !ok {
		return
	}
	var req validator.ReorderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := action(c.Request.Context(), id, req.Direction, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondMessage(c, "Order updated")
}
