package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/email"
)

type recordingSender struct {
	sent chan email.Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg email.Message) error {
	s.sent <- msg
	return s.err
}

func startConsumer(t *testing.T, sender email.Sender) *WatermillPublisher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pubSub := NewInProcessPubSub(logger)

	consumer, err := NewNotificationEmailConsumer(pubSub, sender, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = consumer.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = consumer.Close()
		_ = pubSub.Close()
	})

	select {
	case <-consumer.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}

	return NewWatermillPublisher(pubSub, logger)
}

func TestNotificationEmailConsumer_SendsEmail(t *testing.T) {
	sender := &recordingSender{sent: make(chan email.Message, 1)}
	publisher := startConsumer(t, sender)

	event, err := NewEvent(EventNotificationCreated, NotificationCreatedData{
		NotificationID: 9,
		UserID:         "u-1",
		Email:          "student@example.com",
		FullName:       "Student One",
		Title:          "Payment verified",
		Message:        "You now have access to Go 101.",
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), TopicNotifications, event))

	select {
	case msg := <-sender.sent:
		assert.Equal(t, "student@example.com", msg.To)
		assert.Equal(t, "Payment verified", msg.Subject)
		assert.Equal(t, "You now have access to Go 101.", msg.PlainText)
	case <-time.After(5 * time.Second):
		t.Fatal("email was not sent")
	}
}

func TestNotificationEmailConsumer_SendFailureIsAcked(t *testing.T) {
	sender := &recordingSender{sent: make(chan email.Message, 4), err: errors.New("smtp down")}
	publisher := startConsumer(t, sender)

	event, err := NewEvent(EventNotificationCreated, NotificationCreatedData{Email: "a@example.com", Title: "t"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), TopicNotifications, event))

	select {
	case <-sender.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("email was not attempted")
	}

	// acked: no redelivery
	select {
	case <-sender.sent:
		t.Fatal("message was redelivered")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventNotificationCreated, NotificationCreatedData{UserID: "u-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, SourceLMSService, event.Source)
	assert.Equal(t, EventVersion, event.Version)
	assert.False(t, event.Timestamp.IsZero())
	assert.JSONEq(t, `{"notification_id":0,"user_id":"u-1","email":"","full_name":"","type":"","title":"","message":""}`, string(event.Data))
}
