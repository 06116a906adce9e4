package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&OTPCode{},
		&Course{},
		&CourseModule{},
		&Lesson{},
		&Quiz{},
		&Assignment{},
		&AssignmentSubmission{},
		&LessonProgress{},
		&Enrollment{},
		&Payment{},
		&EnrollmentRequest{},
		&Notification{},
		&AdminAuditLog{},
	}
}
