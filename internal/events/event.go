package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SourceLMSService = "lms-service"
	EventVersion     = "1.0"

	TopicNotifications = "lms.notifications"

	EventNotificationCreated = "notification.created"
)

type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEvent(eventType string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event data: %w", eventType, err)
	}

	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    SourceLMSService,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// NotificationCreatedData is carried by notification.created. It includes the
// recipient address so consumers need no database access.
type NotificationCreatedData struct {
	NotificationID uint   `json:"notification_id"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}
