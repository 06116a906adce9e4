package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// ListCourses returns published courses, newest first.
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var query services.CourseListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.courseService.ListPublished(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// GetCourse looks a published course up by slug. The route shares its
// wildcard with the id-based course routes.
// @Router /courses/{slug} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.GetBySlug(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, course)
}

// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req services.CourseCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondCreated(c, course)
}

// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.CourseUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondOK(c, course)
}

// @Router /courses/{id}/publish [patch]
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	h.courseAction(c, h.courseService.Publish, "Course published")
}

// @Router /courses/{id}/unpublish [patch]
func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	h.courseAction(c, h.courseService.Unpublish, "Course unpublished")
}

// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	h.courseAction(c, h.courseService.Delete, "Course deleted")
}

func (h *CourseHandler) courseAction(c *gin.Context, action func(context.Context, uint, services.Caller) error, message string) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := action(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}
	respondMessage(c, message)
}
