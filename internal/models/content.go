package models

import (
	"time"

	"gorm.io/datatypes"
)

type LessonType string

const (
	LessonTypeVideo      LessonType = "VIDEO"
	LessonTypeQuiz       LessonType = "QUIZ"
	LessonTypeAssignment LessonType = "ASSIGNMENT"
)

// SentinelOrder is the temporary position used while swapping two siblings
// under the unique (parent, sort_order) index.
const SentinelOrder = -1

type CourseModule struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"courseId" gorm:"not null;uniqueIndex:idx_course_modules_course_order"`
	Title    string `json:"title" gorm:"not null;size:200"`
	Order    int    `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_course_modules_course_order"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type Lesson struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	ModuleID uint       `json:"moduleId" gorm:"not null;uniqueIndex:idx_lessons_module_order"`
	Title    string     `json:"title" gorm:"not null;size:200"`
	Type     LessonType `json:"type" gorm:"not null;size:20"`
	VideoURL *string    `json:"videoUrl" gorm:"size:500"`
	Content  string     `json:"content" gorm:"type:text"`
	Order    int        `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_lessons_module_order"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Quiz       *Quiz       `json:"quiz,omitempty" gorm:"foreignKey:LessonID"`
	Assignment *Assignment `json:"assignment,omitempty" gorm:"foreignKey:LessonID"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type Quiz struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	LessonID     uint           `json:"lessonId" gorm:"not null;uniqueIndex"`
	Questions    datatypes.JSON `json:"questions"`
	PassingScore int            `json:"passingScore" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type Assignment struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	LessonID     uint       `json:"lessonId" gorm:"not null;uniqueIndex"`
	Instructions string     `json:"instructions" gorm:"type:text"`
	MaxScore     int        `json:"maxScore" gorm:"not null;default:100"`
	DueDate      *time.Time `json:"dueDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Assignment) TableName() string {
	return "assignments"
}

type AssignmentSubmission struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	AssignmentID uint       `json:"assignmentId" gorm:"not null;uniqueIndex:idx_submissions_assignment_user"`
	UserID       string     `json:"userId" gorm:"not null;size:36;uniqueIndex:idx_submissions_assignment_user"`
	ContentURL   string     `json:"contentUrl" gorm:"not null;size:500"`
	Note         string     `json:"note" gorm:"type:text"`
	Score        *int       `json:"score"`
	Feedback     *string    `json:"feedback" gorm:"type:text"`
	GradedByID   *string    `json:"gradedById" gorm:"size:36"`
	GradedAt     *time.Time `json:"gradedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}

type LessonProgress struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"userId" gorm:"not null;size:36;uniqueIndex:idx_lesson_progress_user_lesson"`
	LessonID    uint       `json:"lessonId" gorm:"not null;uniqueIndex:idx_lesson_progress_user_lesson"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
