package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

func TestEnrollmentPaths_ConcurrentCallsKeepOneEnrollment(t *testing.T) {
	env := newTestEnv(t)
	payments := newPaymentService(env)
	requests := newRequestService(env)
	enrollments := NewEnrollmentService(env.repo, env.db, env.notifier, env.logger, env.validator)
	ctx := context.Background()

	admin := env.user(t, models.RoleAdmin)
	student := env.user(t, models.RoleStudent)
	course := env.course(t, admin.ID, models.CourseStatusPublished)

	const rounds = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i := 0; i < rounds; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := payments.UploadSlip(ctx, student.ID, course.ID, &UploadSlipRequest{SlipURL: slipURL})
			record(err)
		}()
		go func() {
			defer wg.Done()
			_, err := requests.Create(ctx, student.ID, requestFor(course.ID))
			record(err)
		}()
		go func() {
			defer wg.Done()
			_, err := enrollments.EnrollSelf(ctx, student.ID, course.ID)
			record(err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), env.countEnrollments(t, student.ID, course.ID))

	var pendingPayments, pendingRequests int64
	require.NoError(t, env.db.Model(&models.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", student.ID, course.ID, models.PaymentPending).
		Count(&pendingPayments).Error)
	require.NoError(t, env.db.Model(&models.EnrollmentRequest{}).
		Where("user_id = ? AND course_id = ? AND status = ?", student.ID, course.ID, models.RequestPending).
		Count(&pendingRequests).Error)
	assert.Equal(t, int64(1), pendingPayments)
	assert.Equal(t, int64(1), pendingRequests)

	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrConflict) || errors.Is(err, ErrBadRequest), "unexpected error: %v", err)
	}
}
