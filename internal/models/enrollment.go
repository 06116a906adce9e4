package models

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "PENDING"
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
)

type Enrollment struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	UserID       string           `json:"userId" gorm:"not null;size:36;uniqueIndex:idx_enrollments_user_course"`
	CourseID     uint             `json:"courseId" gorm:"not null;uniqueIndex:idx_enrollments_user_course;index"`
	Status       EnrollmentStatus `json:"status" gorm:"not null;size:20;default:PENDING;index"`
	EnrolledByID *string          `json:"enrolledById" gorm:"size:36"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentVerified PaymentStatus = "VERIFIED"
	PaymentRejected PaymentStatus = "REJECTED"
)

// Payment is a slip submission. Only one PENDING row may exist per (user, course).
type Payment struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	UserID       string        `json:"userId" gorm:"not null;size:36;index;uniqueIndex:idx_payments_pending_user_course,where:status = 'PENDING'"`
	CourseID     uint          `json:"courseId" gorm:"not null;index;uniqueIndex:idx_payments_pending_user_course,where:status = 'PENDING'"`
	Amount       float64       `json:"amount" gorm:"not null"`
	SlipURL      string        `json:"slipUrl" gorm:"not null;size:500"`
	Status       PaymentStatus `json:"status" gorm:"not null;size:20;default:PENDING;index"`
	ReviewedByID *string       `json:"reviewedById" gorm:"size:36"`
	ReviewedAt   *time.Time    `json:"reviewedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Payment) TableName() string {
	return "payments"
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

type PaymentMethod string

const (
	PaymentMethodBkash PaymentMethod = "bkash"
	PaymentMethodNagad PaymentMethod = "nagad"
	PaymentMethodBank  PaymentMethod = "bank"
)

// EnrollmentRequest is the manual path: the student reports an external
// transfer and an admin approves it.
type EnrollmentRequest struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	UserID        string        `json:"userId" gorm:"not null;size:36;index;uniqueIndex:idx_requests_pending_user_course,where:status = 'PENDING'"`
	CourseID      uint          `json:"courseId" gorm:"not null;index;uniqueIndex:idx_requests_pending_user_course,where:status = 'PENDING'"`
	PaymentMethod PaymentMethod `json:"paymentMethod" gorm:"not null;size:20"`
	TransactionID string        `json:"transactionId" gorm:"not null;size:100"`
	ScreenshotURL string        `json:"screenshotUrl" gorm:"not null;size:500"`
	Status        RequestStatus `json:"status" gorm:"not null;size:20;default:PENDING;index"`
	AdminNote     *string       `json:"adminNote" gorm:"type:text"`
	ReviewedByID  *string       `json:"reviewedById" gorm:"size:36"`
	ReviewedAt    *time.Time    `json:"reviewedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (EnrollmentRequest) TableName() string {
	return "enrollment_requests"
}
