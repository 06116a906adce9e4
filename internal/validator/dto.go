package validator

import (
	"encoding/json"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Auth

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type OTPVerifyRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	FullName string `json:"fullName" validate:"omitempty,max=100"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
}

// Catalog

type CourseCreateRequest struct {
	Title         string   `json:"title" validate:"required,course_title"`
	Description   string   `json:"description" validate:"max=5000"`
	ThumbnailURL  *string  `json:"thumbnailUrl" validate:"omitempty,http_url"`
	Price         float64  `json:"price" validate:"min=0"`
	DiscountPrice *float64 `json:"discountPrice" validate:"omitempty,min=0"`
}

type CourseUpdateRequest struct {
	Title         *string  `json:"title" validate:"omitempty,course_title"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	ThumbnailURL  *string  `json:"thumbnailUrl" validate:"omitempty,http_url"`
	Price         *float64 `json:"price" validate:"omitempty,min=0"`
	DiscountPrice *float64 `json:"discountPrice" validate:"omitempty,min=0"`
}

type CourseListQuery struct {
	Search string `form:"search" validate:"max=100"`
	Limit  int    `form:"limit" validate:"min=0,max=100"`
	Offset int    `form:"offset" validate:"min=0"`
}

// Content

type ModuleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type QuizRequest struct {
	Questions    json.RawMessage `json:"questions"`
	PassingScore int             `json:"passingScore" validate:"min=0,max=100"`
}

type AssignmentRequest struct {
	Instructions string     `json:"instructions" validate:"max=10000"`
	MaxScore     int        `json:"maxScore" validate:"min=1,max=1000"`
	DueDate      *time.Time `json:"dueDate" validate:"omitempty,future_date"`
}

type LessonCreateRequest struct {
	Title      string             `json:"title" validate:"required,min=1,max=200"`
	Type       models.LessonType  `json:"type" validate:"required,lesson_type"`
	VideoURL   *string            `json:"videoUrl" validate:"omitempty,http_url"`
	Content    string             `json:"content" validate:"max=50000"`
	Quiz       *QuizRequest       `json:"quiz"`
	Assignment *AssignmentRequest `json:"assignment"`
}

type LessonUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	VideoURL *string `json:"videoUrl" validate:"omitempty,http_url"`
	Content  *string `json:"content" validate:"omitempty,max=50000"`
}

type ReorderRequest struct {
	Direction Direction `json:"direction" validate:"required,reorder_direction"`
}

type SubmitAssignmentRequest struct {
	ContentURL string `json:"contentUrl" validate:"required,http_url"`
	Note       string `json:"note" validate:"max=2000"`
}

type GradeSubmissionRequest struct {
	Score    *int    `json:"score" validate:"required,min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=5000"`
}

// Enrollment & payments

type AdminEnrollRequest struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	CourseID  uint   `json:"courseId" validate:"required"`
}

type UploadSlipRequest struct {
	SlipURL string `json:"slipUrl" validate:"required,http_url,max=500"`
}

type EnrollmentRequestCreate struct {
	CourseID      uint   `json:"courseId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,payment_method"`
	TransactionID string `json:"transactionId" validate:"required,max=100"`
	ScreenshotURL string `json:"screenshotUrl" validate:"required,http_url,max=500"`
}

type ReviewRequest struct {
	AdminNote *string `json:"adminNote" validate:"omitempty,max=1000"`
}

// ListQuery is shared by the admin list endpoints. Status is checked against
// the resource's own enum by the service.
type ListQuery struct {
	Status   string `form:"status"`
	CourseID uint   `form:"courseId"`
	UserID   string `form:"userId" validate:"omitempty,uuid"`
	Limit    int    `form:"limit" validate:"min=0,max=100"`
	Offset   int    `form:"offset" validate:"min=0"`
}
