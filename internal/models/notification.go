package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationPaymentVerified  NotificationType = "PAYMENT_VERIFIED"
	NotificationPaymentRejected  NotificationType = "PAYMENT_REJECTED"
	NotificationRequestApproved  NotificationType = "ENROLLMENT_REQUEST_APPROVED"
	NotificationRequestRejected  NotificationType = "ENROLLMENT_REQUEST_REJECTED"
	NotificationEnrollmentActive NotificationType = "ENROLLMENT_ACTIVATED"
)

type Notification struct {
	ID      uint             `json:"id" gorm:"primaryKey"`
	UserID  string           `json:"userId" gorm:"not null;size:36;index"`
	Type    NotificationType `json:"type" gorm:"not null;size:50"`
	Title   string           `json:"title" gorm:"not null;size:200"`
	Message string           `json:"message" gorm:"type:text"`
	Data    datatypes.JSON   `json:"data"`
	IsRead  bool             `json:"isRead" gorm:"not null;default:false"`
	ReadAt  *time.Time       `json:"readAt"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

// AdminAuditLog records a mutating request made by an admin.
type AdminAuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ActorID    string         `json:"actorId" gorm:"not null;size:36;index"`
	ActorRole  UserRole       `json:"actorRole" gorm:"not null;size:20"`
	Method     string         `json:"method" gorm:"not null;size:10"`
	Path       string         `json:"path" gorm:"not null;size:500"`
	StatusCode int            `json:"statusCode"`
	ResourceID *string        `json:"resourceId" gorm:"size:64"`
	Payload    datatypes.JSON `json:"payload"`
	RequestID  string         `json:"requestId" gorm:"size:64"`

	CreatedAt time.Time `json:"createdAt"`
}

func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
