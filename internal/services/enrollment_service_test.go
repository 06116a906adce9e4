package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

func TestEnrollmentService_EnrollSelf(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	published := env.course(t, admin.ID, models.CourseStatusPublished)
	draft := env.course(t, admin.ID, models.CourseStatusDraft)

	enrollment, err := svc.EnrollSelf(ctx, student.ID, published.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, enrollment.Status)
	assert.Nil(t, enrollment.EnrolledByID)

	_, err = svc.EnrollSelf(ctx, student.ID, published.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = svc.EnrollSelf(ctx, student.ID, draft.ID)
	assert.True(t, errors.Is(err, ErrBadRequest))

	_, err = svc.EnrollSelf(ctx, student.ID, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, int64(1), env.countEnrollments(t, student.ID, published.ID))
}

func TestEnrollmentService_EnrollSelf_CancelledStillConflicts(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)
	env.enrollment(t, student.ID, course.ID, models.EnrollmentCancelled)

	_, err := svc.EnrollSelf(context.Background(), student.ID, course.ID)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestEnrollmentService_EnrollStudent(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)

	enrollment, err := svc.EnrollStudent(ctx, admin.ID, &AdminEnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)
	require.NotNil(t, enrollment.EnrolledByID)
	assert.Equal(t, admin.ID, *enrollment.EnrolledByID)
	assert.Equal(t, models.EnrollmentPending, enrollment.Status)

	_, err = svc.EnrollStudent(ctx, admin.ID, &AdminEnrollRequest{StudentID: "2f1b7c1e-0000-4000-8000-000000000000", CourseID: course.ID})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEnrollmentService_Transitions(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)

	tests := []struct {
		name    string
		from    models.EnrollmentStatus
		op      func(id uint) (*models.Enrollment, error)
		wantErr error
		want    models.EnrollmentStatus
	}{
		{"activate pending", models.EnrollmentPending, func(id uint) (*models.Enrollment, error) { return svc.Activate(ctx, id, admin.ID) }, nil, models.EnrollmentActive},
		{"activate active", models.EnrollmentActive, func(id uint) (*models.Enrollment, error) { return svc.Activate(ctx, id, admin.ID) }, ErrBadRequest, models.EnrollmentActive},
		{"activate cancelled", models.EnrollmentCancelled, func(id uint) (*models.Enrollment, error) { return svc.Activate(ctx, id, admin.ID) }, ErrBadRequest, models.EnrollmentCancelled},
		{"cancel pending", models.EnrollmentPending, func(id uint) (*models.Enrollment, error) { return svc.Cancel(ctx, id, admin.ID) }, nil, models.EnrollmentCancelled},
		{"cancel active", models.EnrollmentActive, func(id uint) (*models.Enrollment, error) { return svc.Cancel(ctx, id, admin.ID) }, nil, models.EnrollmentCancelled},
		{"cancel cancelled", models.EnrollmentCancelled, func(id uint) (*models.Enrollment, error) { return svc.Cancel(ctx, id, admin.ID) }, ErrBadRequest, models.EnrollmentCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, env.db.Where("1 = 1").Delete(&models.Enrollment{}).Error)
			e := env.enrollment(t, student.ID, course.ID, tt.from)

			_, err := tt.op(e.ID)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}

			stored, err := env.repo.Enrollment().GetByID(ctx, nil, e.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Status)
		})
	}

	_, err := svc.Activate(ctx, 9999, admin.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEnrollmentService_ActivateNotifies(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)
	e := env.enrollment(t, student.ID, course.ID, models.EnrollmentPending)

	_, err := svc.Activate(context.Background(), e.ID, admin.ID)
	require.NoError(t, err)

	sent := env.notifier.wait(t)
	assert.Equal(t, student.ID, sent.UserID)
	assert.Equal(t, models.NotificationEnrollmentActive, sent.Kind)
}

func TestEnrollmentService_List(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	course := env.course(t, admin.ID, models.CourseStatusPublished)
	env.enrollment(t, env.user(t, models.RoleStudent).ID, course.ID, models.EnrollmentPending)
	env.enrollment(t, env.user(t, models.RoleStudent).ID, course.ID, models.EnrollmentActive)

	resp, err := svc.List(ctx, &ListQuery{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Enrollments, 1)
	assert.Equal(t, models.EnrollmentActive, resp.Enrollments[0].Status)

	_, err = svc.List(ctx, &ListQuery{Status: "archived"})
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestEnrollmentService_ExportXLSX(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)

	admin := env.user(t, models.RoleAdmin)
	course := env.course(t, admin.ID, models.CourseStatusPublished)
	first := env.user(t, models.RoleStudent)
	second := env.user(t, models.RoleStudent)
	env.enrollment(t, first.ID, course.ID, models.EnrollmentPending)
	env.enrollment(t, second.ID, course.ID, models.EnrollmentActive)

	data, err := svc.ExportXLSX(context.Background(), &ListQuery{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Enrollments")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Enrollment ID", rows[0][0])

	emails := []string{rows[1][2], rows[2][2]}
	assert.ElementsMatch(t, []string{first.Email, second.Email}, emails)
	assert.Equal(t, course.Title, rows[1][3])
}
