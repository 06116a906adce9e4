package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/SAP-F-2025/lms-service/internal/email"
)

// NotificationEmailConsumer delivers notification.created events by email.
// Delivery failures are logged and the message is acked.
type NotificationEmailConsumer struct {
	router *message.Router
	sender email.Sender
	logger *slog.Logger
}

func NewNotificationEmailConsumer(subscriber message.Subscriber, sender email.Sender, logger *slog.Logger) (*NotificationEmailConsumer, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	c := &NotificationEmailConsumer{
		router: router,
		sender: sender,
		logger: logger,
	}
	router.AddNoPublisherHandler("notification_email", TopicNotifications, subscriber, c.handle)

	return c, nil
}

// Run blocks until ctx is cancelled or Close is called.
func (c *NotificationEmailConsumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

func (c *NotificationEmailConsumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *NotificationEmailConsumer) Close() error {
	return c.router.Close()
}

func (c *NotificationEmailConsumer) handle(msg *message.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("Dropping malformed event", "message_id", msg.UUID, "error", err)
		return nil
	}
	if event.Type != EventNotificationCreated {
		return nil
	}

	var data NotificationCreatedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		c.logger.Error("Dropping malformed notification event", "event_id", event.ID, "error", err)
		return nil
	}
	if data.Email == "" {
		return nil
	}

	err := c.sender.Send(msg.Context(), email.Message{
		To:        data.Email,
		ToName:    data.FullName,
		Subject:   data.Title,
		PlainText: data.Message,
	})
	if err != nil {
		c.logger.Error("Failed to send notification email",
			"notification_id", data.NotificationID,
			"user_id", data.UserID,
			"error", err)
		return nil
	}

	c.logger.Info("Notification email sent", "notification_id", data.NotificationID, "user_id", data.UserID)
	return nil
}
