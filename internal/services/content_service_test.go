package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

func newContentService(env *testEnv) ContentService {
	authz := NewAuthorizationService(env.repo, env.logger)
	return NewContentService(env.repo, env.db, authz, nil, env.logger, env.validator)
}

type contentTree struct {
	course     *models.Course
	module     *models.CourseModule
	video      *models.Lesson
	quiz       *models.Lesson
	assignment *models.Lesson
}

// buildTree creates one module holding a video, a quiz and an assignment
// lesson, plus one submission and one progress row.
func buildTree(t *testing.T, env *testEnv, svc ContentService, owner *models.User, student *models.User) contentTree {
	t.Helper()
	ctx := context.Background()

	course := env.course(t, owner.ID, models.CourseStatusPublished)
	module, err := svc.CreateModule(ctx, course.ID, &ModuleRequest{Title: "Basics"}, caller(owner))
	require.NoError(t, err)

	video, err := svc.CreateLesson(ctx, module.ID, &LessonCreateRequest{Title: "Intro", Type: models.LessonTypeVideo}, caller(owner))
	require.NoError(t, err)
	quiz, err := svc.CreateLesson(ctx, module.ID, &LessonCreateRequest{Title: "Check", Type: models.LessonTypeQuiz}, caller(owner))
	require.NoError(t, err)
	assignment, err := svc.CreateLesson(ctx, module.ID, &LessonCreateRequest{Title: "Homework", Type: models.LessonTypeAssignment}, caller(owner))
	require.NoError(t, err)

	env.enrollment(t, student.ID, course.ID, models.EnrollmentActive)
	_, err = svc.SubmitAssignment(ctx, assignment.Assignment.ID, &SubmitAssignmentRequest{ContentURL: "https://files.example.com/hw.pdf"}, student.ID)
	require.NoError(t, err)
	_, err = svc.CompleteLesson(ctx, video.ID, student.ID)
	require.NoError(t, err)

	return contentTree{course: course, module: module, video: video, quiz: quiz, assignment: assignment}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestContentService_CreateLessonSideRecords(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	owner := env.user(t, models.RoleAdmin)
	tree := buildTree(t, env, svc, owner, env.user(t, models.RoleStudent))

	assert.Equal(t, 1, tree.video.Order)
	assert.Equal(t, 2, tree.quiz.Order)
	assert.Equal(t, 3, tree.assignment.Order)
	require.NotNil(t, tree.quiz.Quiz)
	assert.JSONEq(t, "[]", string(tree.quiz.Quiz.Questions))
	require.NotNil(t, tree.assignment.Assignment)
	assert.Equal(t, 100, tree.assignment.Assignment.MaxScore)
}

func TestContentService_DeleteModuleCascade(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	owner := env.user(t, models.RoleAdmin)
	tree := buildTree(t, env, svc, owner, env.user(t, models.RoleStudent))

	require.NoError(t, svc.DeleteModule(context.Background(), tree.module.ID, caller(owner)))

	assert.Zero(t, countRows(t, env.db, &models.CourseModule{}))
	assert.Zero(t, countRows(t, env.db, &models.Lesson{}))
	assert.Zero(t, countRows(t, env.db, &models.Quiz{}))
	assert.Zero(t, countRows(t, env.db, &models.Assignment{}))
	assert.Zero(t, countRows(t, env.db, &models.AssignmentSubmission{}))
	assert.Zero(t, countRows(t, env.db, &models.LessonProgress{}))
}

func TestContentService_DeleteModuleRollsBack(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	owner := env.user(t, models.RoleAdmin)
	tree := buildTree(t, env, svc, owner, env.user(t, models.RoleStudent))

	// fail the cascade after submissions, assignments and quizzes are gone
	err := env.db.Callback().Delete().Before("gorm:delete").Register("test:fail_lessons", func(db *gorm.DB) {
		if db.Statement.Table == "lessons" {
			_ = db.AddError(errors.New("forced failure"))
		}
	})
	require.NoError(t, err)

	err = svc.DeleteModule(context.Background(), tree.module.ID, caller(owner))
	require.Error(t, err)

	assert.Equal(t, int64(1), countRows(t, env.db, &models.CourseModule{}))
	assert.Equal(t, int64(3), countRows(t, env.db, &models.Lesson{}))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.Quiz{}))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.Assignment{}))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.AssignmentSubmission{}))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.LessonProgress{}))
}

func TestContentService_DeleteModuleForbiddenForOtherAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	owner := env.user(t, models.RoleAdmin)
	other := env.user(t, models.RoleAdmin)
	tree := buildTree(t, env, svc, owner, env.user(t, models.RoleStudent))

	err := svc.DeleteModule(context.Background(), tree.module.ID, caller(other))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))

	var permErr *PermissionError
	assert.True(t, errors.As(err, &permErr))

	assert.Equal(t, int64(1), countRows(t, env.db, &models.CourseModule{}))
	assert.Equal(t, int64(3), countRows(t, env.db, &models.Lesson{}))
}

func TestContentService_DeleteLesson(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	owner := env.user(t, models.RoleAdmin)
	tree := buildTree(t, env, svc, owner, env.user(t, models.RoleStudent))

	require.NoError(t, svc.DeleteLesson(context.Background(), tree.assignment.ID, caller(owner)))

	assert.Equal(t, int64(2), countRows(t, env.db, &models.Lesson{}))
	assert.Zero(t, countRows(t, env.db, &models.Assignment{}))
	assert.Zero(t, countRows(t, env.db, &models.AssignmentSubmission{}))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.Quiz{}))

	err := svc.DeleteLesson(context.Background(), tree.assignment.ID, caller(owner))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestContentService_ReorderLesson(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	ctx := context.Background()
	owner := env.user(t, models.RoleAdmin)
	tree := buildTree(t, env, svc, owner, env.user(t, models.RoleStudent))

	orders := func() map[uint]int {
		var lessons []models.Lesson
		require.NoError(t, env.db.Find(&lessons).Error)
		out := make(map[uint]int, len(lessons))
		for _, l := range lessons {
			out[l.ID] = l.Order
		}
		return out
	}
	before := orders()

	err := svc.ReorderLesson(ctx, tree.video.ID, validator.DirectionUp, caller(owner))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, before, orders())

	err = svc.ReorderLesson(ctx, tree.assignment.ID, validator.DirectionDown, caller(owner))
	assert.True(t, errors.Is(err, ErrBadRequest))

	require.NoError(t, svc.ReorderLesson(ctx, tree.quiz.ID, validator.DirectionUp, caller(owner)))
	after := orders()
	assert.Equal(t, 1, after[tree.quiz.ID])
	assert.Equal(t, 2, after[tree.video.ID])
	assert.Equal(t, 3, after[tree.assignment.ID])

	err = svc.ReorderLesson(ctx, tree.quiz.ID, validator.Direction("sideways"), caller(owner))
	assert.Error(t, err)
}

func TestContentService_ReorderModule(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	ctx := context.Background()
	owner := env.user(t, models.RoleAdmin)
	course := env.course(t, owner.ID, models.CourseStatusDraft)

	first, err := svc.CreateModule(ctx, course.ID, &ModuleRequest{Title: "One"}, caller(owner))
	require.NoError(t, err)
	second, err := svc.CreateModule(ctx, course.ID, &ModuleRequest{Title: "Two"}, caller(owner))
	require.NoError(t, err)

	require.NoError(t, svc.ReorderModule(ctx, first.ID, validator.DirectionDown, caller(owner)))

	m1, err := env.repo.Module().GetByID(ctx, nil, first.ID)
	require.NoError(t, err)
	m2, err := env.repo.Module().GetByID(ctx, nil, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, m1.Order)
	assert.Equal(t, 1, m2.Order)
}

func TestContentService_SubmitAssignment(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	ctx := context.Background()
	owner := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	tree := buildTree(t, env, svc, owner, student)

	req := &SubmitAssignmentRequest{ContentURL: "https://files.example.com/again.pdf"}
	_, err := svc.SubmitAssignment(ctx, tree.assignment.Assignment.ID, req, student.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	outsider := env.user(t, models.RoleStudent)
	_, err = svc.SubmitAssignment(ctx, tree.assignment.Assignment.ID, req, outsider.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestContentService_GradeSubmission(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	ctx := context.Background()
	owner := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	tree := buildTree(t, env, svc, owner, student)

	submissions, err := svc.ListSubmissions(ctx, tree.assignment.Assignment.ID, caller(owner))
	require.NoError(t, err)
	require.Len(t, submissions, 1)

	tooHigh := 101
	_, err = svc.GradeSubmission(ctx, submissions[0].ID, &GradeSubmissionRequest{Score: &tooHigh}, caller(owner))
	assert.Error(t, err)

	score := 87
	graded, err := svc.GradeSubmission(ctx, submissions[0].ID, &GradeSubmissionRequest{Score: &score}, caller(owner))
	require.NoError(t, err)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 87, *graded.Score)

	_, err = svc.GradeSubmission(ctx, submissions[0].ID, &GradeSubmissionRequest{Score: &score}, caller(env.user(t, models.RoleAdmin)))
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestContentService_Progress(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	ctx := context.Background()
	owner := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	tree := buildTree(t, env, svc, owner, student)

	// completing twice keeps a single row
	_, err := svc.CompleteLesson(ctx, tree.video.ID, student.ID)
	require.NoError(t, err)
	_, err = svc.CompleteLesson(ctx, tree.quiz.ID, student.ID)
	require.NoError(t, err)

	progress, err := svc.GetCourseProgress(ctx, tree.course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalLessons)
	assert.Equal(t, 2, progress.CompletedLessons)
	assert.InDelta(t, 66.67, progress.Percent, 0.01)
	assert.Equal(t, int64(2), countRows(t, env.db, &models.LessonProgress{}))
}

func TestContentService_GetCourseContent(t *testing.T) {
	env := newTestEnv(t)
	svc := newContentService(env)
	ctx := context.Background()
	owner := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	tree := buildTree(t, env, svc, owner, student)

	course, err := svc.GetCourseContent(ctx, tree.course.ID, caller(student))
	require.NoError(t, err)
	require.Len(t, course.Modules, 1)
	assert.Len(t, course.Modules[0].Lessons, 3)

	_, err = svc.GetCourseContent(ctx, tree.course.ID, caller(env.user(t, models.RoleStudent)))
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = svc.GetCourseContent(ctx, tree.course.ID, caller(env.user(t, models.RoleSuperAdmin)))
	assert.NoError(t, err)
}
