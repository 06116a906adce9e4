package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

func TestPaymentMethodRule(t *testing.T) {
	v := New()
	tests := []struct {
		method string
		valid  bool
	}{
		{"bkash", true},
		{"nagad", true},
		{"bank", true},
		{"BKASH", false},
		{"paypal", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			err := v.Validate(&EnrollmentRequestCreate{
				CourseID:      1,
				PaymentMethod: tt.method,
				TransactionID: "TX1",
				ScreenshotURL: "https://cdn.example.com/s.png",
			})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs := ToValidationErrors(err)
			assert.Equal(t, "paymentMethod", errs[0].Field)
		})
	}
}

func TestUploadSlipRequest_URLShape(t *testing.T) {
	v := New()
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://cdn.example.com/slip.jpg", true},
		{"http://cdn.example.com/slip.pdf", true},
		{"ftp://cdn.example.com/slip.jpg", false},
		{"/relative/slip.jpg", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := v.Validate(&UploadSlipRequest{SlipURL: tt.url})
			assert.Equal(t, tt.valid, err == nil, "err=%v", err)
		})
	}
}

func TestValidateLessonCreate(t *testing.T) {
	bv := NewBusinessValidator()

	ok := bv.ValidateLessonCreate(&LessonCreateRequest{Title: "Intro", Type: models.LessonTypeQuiz, Quiz: &QuizRequest{PassingScore: 50}})
	assert.Empty(t, ok)

	mismatch := bv.ValidateLessonCreate(&LessonCreateRequest{Title: "Intro", Type: models.LessonTypeVideo, Assignment: &AssignmentRequest{MaxScore: 10}})
	require.Len(t, mismatch, 1)
	assert.Equal(t, "lesson_side_record", mismatch[0].Rule)

	badType := bv.ValidateLessonCreate(&LessonCreateRequest{Title: "Intro", Type: "AUDIO"})
	require.Len(t, badType, 1)
	assert.Equal(t, "lesson_type", badType[0].Rule)
}

func TestValidateCourseCreate_Discount(t *testing.T) {
	bv := NewBusinessValidator()
	discount := 1500.0

	errs := bv.ValidateCourseCreate(&CourseCreateRequest{Title: "Go 101", Price: 1000, DiscountPrice: &discount})
	require.Len(t, errs, 1)
	assert.Equal(t, "discountPrice", errs[0].Field)
}

func TestFutureDate(t *testing.T) {
	v := New()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.Error(t, v.Validate(&AssignmentRequest{MaxScore: 10, DueDate: &past}))
	assert.NoError(t, v.Validate(&AssignmentRequest{MaxScore: 10, DueDate: &future}))
	assert.NoError(t, v.Validate(&AssignmentRequest{MaxScore: 10}))
}

func TestSecretsNotEchoed(t *testing.T) {
	v := New()
	err := v.Validate(&RegisterRequest{Email: "a@b.co", Password: "short", FullName: "Ann"})
	errs := ToValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
	assert.Nil(t, errs[0].Value)
}
