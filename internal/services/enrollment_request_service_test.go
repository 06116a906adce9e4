package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

func newRequestService(env *testEnv) EnrollmentRequestService {
	return NewEnrollmentRequestService(env.repo, env.db, env.notifier, env.logger, env.validator)
}

func requestFor(courseID uint) *EnrollmentRequestCreate {
	return &EnrollmentRequestCreate{
		CourseID:      courseID,
		PaymentMethod: "bkash",
		TransactionID: "TX-1001",
		ScreenshotURL: "https://files.example.com/tx.png",
	}
}

func TestEnrollmentRequestService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc := newRequestService(env)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)

	request, err := svc.Create(ctx, student.ID, requestFor(course.ID))
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)
	assert.Equal(t, models.PaymentMethodBkash, request.PaymentMethod)

	_, err = svc.Create(ctx, student.ID, requestFor(course.ID))
	assert.True(t, errors.Is(err, ErrConflict))

	active := env.user(t, models.RoleStudent)
	env.enrollment(t, active.ID, course.ID, models.EnrollmentActive)
	_, err = svc.Create(ctx, active.ID, requestFor(course.ID))
	assert.True(t, errors.Is(err, ErrConflict))

	bad := requestFor(course.ID)
	bad.PaymentMethod = "paypal"
	_, err = svc.Create(ctx, env.user(t, models.RoleStudent).ID, bad)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestEnrollmentRequestService_ApproveIsIdempotent(t *testing.T) {
	tests := []struct {
		name     string
		existing *models.EnrollmentStatus
	}{
		{name: "no enrollment"},
		{name: "pending enrollment", existing: statusPtr(models.EnrollmentPending)},
		{name: "cancelled enrollment", existing: statusPtr(models.EnrollmentCancelled)},
		{name: "active enrollment", existing: statusPtr(models.EnrollmentActive)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := newRequestService(env)
			ctx := context.Background()

			admin := env.user(t, models.RoleAdmin)
			student := env.user(t, models.RoleStudent)
			course := env.course(t, admin.ID, models.CourseStatusPublished)

			request := &models.EnrollmentRequest{
				UserID:        student.ID,
				CourseID:      course.ID,
				PaymentMethod: models.PaymentMethodNagad,
				TransactionID: "TX",
				ScreenshotURL: "https://files.example.com/tx.png",
				Status:        models.RequestPending,
			}
			require.NoError(t, env.repo.EnrollmentRequest().Create(ctx, nil, request))
			if tt.existing != nil {
				env.enrollment(t, student.ID, course.ID, *tt.existing)
			}

			note := "looks good"
			approved, err := svc.Approve(ctx, request.ID, admin.ID, &note)
			require.NoError(t, err)
			assert.Equal(t, models.RequestApproved, approved.Status)

			// a retried approval is refused without touching the enrollment
			_, err = svc.Approve(ctx, request.ID, admin.ID, nil)
			assert.True(t, errors.Is(err, ErrBadRequest))

			enrollment, err := env.repo.Enrollment().GetByUserAndCourse(ctx, nil, student.ID, course.ID)
			require.NoError(t, err)
			require.NotNil(t, enrollment)
			assert.Equal(t, models.EnrollmentActive, enrollment.Status)
			assert.Equal(t, int64(1), env.countEnrollments(t, student.ID, course.ID))

			stored, err := env.repo.EnrollmentRequest().GetByID(ctx, nil, request.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.AdminNote)
			assert.Equal(t, note, *stored.AdminNote)
		})
	}
}

func TestEnrollmentRequestService_Reject(t *testing.T) {
	env := newTestEnv(t)
	svc := newRequestService(env)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)
	env.enrollment(t, student.ID, course.ID, models.EnrollmentPending)

	request, err := svc.Create(ctx, student.ID, requestFor(course.ID))
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, request.ID, admin.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.Equal(t, models.NotificationRequestRejected, env.notifier.wait(t).Kind)

	enrollment, err := env.repo.Enrollment().GetByUserAndCourse(ctx, nil, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, enrollment.Status)

	_, err = svc.Approve(ctx, request.ID, admin.ID, nil)
	assert.True(t, errors.Is(err, ErrBadRequest))

	// a rejected request no longer blocks a new one
	_, err = svc.Create(ctx, student.ID, requestFor(course.ID))
	assert.NoError(t, err)
}

func statusPtr(s models.EnrollmentStatus) *models.EnrollmentStatus {
	return &s
}
