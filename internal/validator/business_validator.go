package validator

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	// report JSON field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate checks the struct and that any discount undercuts the price
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	errs := bv.Validate(req)
	errs = append(errs, validateDiscount(req.Price, req.DiscountPrice)...)
	return errs
}

func (bv *BusinessValidator) ValidateCourseUpdate(req *CourseUpdateRequest, existing *models.Course) ValidationErrors {
	errs := bv.Validate(req)

	price := existing.Price
	if req.Price != nil {
		price = *req.Price
	}
	discount := existing.DiscountPrice
	if req.DiscountPrice != nil {
		discount = req.DiscountPrice
	}
	errs = append(errs, validateDiscount(price, discount)...)
	return errs
}

// ValidateLessonCreate ties the side-record payload to the lesson type
func (bv *BusinessValidator) ValidateLessonCreate(req *LessonCreateRequest) ValidationErrors {
	errs := bv.Validate(req)
	if len(errs) > 0 {
		return errs
	}

	switch req.Type {
	case models.LessonTypeVideo:
		if req.Quiz != nil || req.Assignment != nil {
			errs = append(errs, ValidationError{Field: "type", Message: "VIDEO lessons cannot carry a quiz or assignment", Rule: "lesson_side_record"})
		}
	case models.LessonTypeQuiz:
		if req.Assignment != nil {
			errs = append(errs, ValidationError{Field: "assignment", Message: "QUIZ lessons cannot carry an assignment", Rule: "lesson_side_record"})
		}
	case models.LessonTypeAssignment:
		if req.Quiz != nil {
			errs = append(errs, ValidationError{Field: "quiz", Message: "ASSIGNMENT lessons cannot carry a quiz", Rule: "lesson_side_record"})
		}
	}
	return errs
}

func (bv *BusinessValidator) ValidateGrade(req *GradeSubmissionRequest, maxScore int) ValidationErrors {
	errs := bv.Validate(req)
	if len(errs) == 0 && *req.Score > maxScore {
		errs = append(errs, ValidationError{Field: "score", Message: "exceeds the assignment's max score", Value: *req.Score, Rule: "max_score"})
	}
	return errs
}

func validateDiscount(price float64, discount *float64) ValidationErrors {
	if discount != nil && *discount > price {
		return ValidationErrors{{Field: "discountPrice", Message: "must not exceed price", Value: *discount, Rule: "discount_price"}}
	}
	return nil
}

func (bv *BusinessValidator) registerBusinessRules() {
	// Manual payment channels, matched literally
	bv.validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		switch models.PaymentMethod(fl.Field().String()) {
		case models.PaymentMethodBkash, models.PaymentMethodNagad, models.PaymentMethodBank:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("lesson_type", func(fl validator.FieldLevel) bool {
		switch models.LessonType(fl.Field().String()) {
		case models.LessonTypeVideo, models.LessonTypeQuiz, models.LessonTypeAssignment:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("reorder_direction", func(fl validator.FieldLevel) bool {
		d := fl.Field().String()
		return d == string(DirectionUp) || d == string(DirectionDown)
	})

	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		if len(title) < 3 || len(title) > 200 {
			return false
		}
		return strings.IndexFunc(title, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0
	})

	bv.validate.RegisterValidation("enrollment_status", func(fl validator.FieldLevel) bool {
		switch models.EnrollmentStatus(fl.Field().String()) {
		case models.EnrollmentPending, models.EnrollmentActive, models.EnrollmentCancelled:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		switch models.PaymentStatus(fl.Field().String()) {
		case models.PaymentPending, models.PaymentVerified, models.PaymentRejected:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("request_status", func(fl validator.FieldLevel) bool {
		switch models.RequestStatus(fl.Field().String()) {
		case models.RequestPending, models.RequestApproved, models.RequestRejected:
			return true
		}
		return false
	})

	// Due dates may be omitted; when given they must be in the future
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		t, ok := field.Interface().(time.Time)
		return ok && t.After(time.Now())
	})
}
