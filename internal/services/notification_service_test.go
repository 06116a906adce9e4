package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
)

func TestNotificationService_Notify(t *testing.T) {
	env := newTestEnv(t)
	publisher := events.NewMockEventPublisher(env.logger)
	svc := NewNotificationService(env.repo, publisher, env.logger)
	ctx := context.Background()

	student := env.user(t, models.RoleStudent)
	err := svc.Notify(ctx, student.ID, models.NotificationPaymentVerified, "Payment verified", "ok", map[string]interface{}{"paymentId": 7})
	require.NoError(t, err)

	list, err := svc.ListMine(ctx, student.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	n := list.Notifications[0]
	assert.Equal(t, models.NotificationPaymentVerified, n.Type)
	assert.False(t, n.IsRead)
	assert.JSONEq(t, `{"paymentId":7}`, string(n.Data))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, []string{events.TopicNotifications}, publisher.GetTopics())
	assert.Equal(t, events.EventNotificationCreated, published[0].Type)

	var data events.NotificationCreatedData
	require.NoError(t, json.Unmarshal(published[0].Data, &data))
	assert.Equal(t, student.Email, data.Email)
	assert.Equal(t, n.ID, data.NotificationID)
}

func TestNotificationService_PublishFailureKeepsRow(t *testing.T) {
	env := newTestEnv(t)
	publisher := events.NewMockEventPublisher(env.logger)
	publisher.FailWith(errors.New("broker down"))
	svc := NewNotificationService(env.repo, publisher, env.logger)
	ctx := context.Background()

	student := env.user(t, models.RoleStudent)
	err := svc.Notify(ctx, student.ID, models.NotificationRequestApproved, "Approved", "ok", nil)
	assert.Error(t, err)

	list, err := svc.ListMine(ctx, student.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestNotificationService_MarkRead(t *testing.T) {
	env := newTestEnv(t)
	svc := NewNotificationService(env.repo, nil, env.logger)
	ctx := context.Background()

	owner := env.user(t, models.RoleStudent)
	require.NoError(t, svc.Notify(ctx, owner.ID, models.NotificationPaymentRejected, "Rejected", "no", nil))
	list, err := svc.ListMine(ctx, owner.ID, 0, 0)
	require.NoError(t, err)
	id := list.Notifications[0].ID

	assert.True(t, errors.Is(svc.MarkRead(ctx, id, "someone-else"), ErrNotFound))
	require.NoError(t, svc.MarkRead(ctx, id, owner.ID))
	require.NoError(t, svc.MarkRead(ctx, id, owner.ID))

	list, err = svc.ListMine(ctx, owner.ID, 0, 0)
	require.NoError(t, err)
	assert.True(t, list.Notifications[0].IsRead)
	assert.NotNil(t, list.Notifications[0].ReadAt)
}

func TestServiceManager_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	sm := NewServiceManager(env.db, env.repo, env.logger, env.validator, Dependencies{
		Tokens: NewTokenManager("secret", 0, ""),
	})

	assert.Panics(t, func() { sm.Course() })
	require.NoError(t, sm.Initialize(context.Background()))

	assert.NotNil(t, sm.Auth())
	assert.NotNil(t, sm.Payment())
	assert.NotNil(t, sm.EnrollmentRequest())
	assert.NoError(t, sm.HealthCheck(context.Background()))

	require.NoError(t, sm.Shutdown(context.Background()))
	assert.Error(t, sm.HealthCheck(context.Background()))
}
