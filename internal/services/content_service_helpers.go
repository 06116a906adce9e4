package services

import (
	"context"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// ===== QUIZZES & ASSIGNMENTS =====

func (s *contentService) UpdateQuiz(ctx context.Context, id uint, req *QuizRequest, caller Caller) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceQuiz, id, caller, "update"); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Quiz not found", "")
	}

	if len(req.Questions) > 0 {
		quiz.Questions = datatypes.JSON(req.Questions)
	}
	quiz.PassingScore = req.PassingScore

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *contentService) UpdateAssignment(ctx context.Context, id uint, req *AssignmentRequest, caller Caller) (*models.Assignment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceAssignment, id, caller, "update"); err != nil {
		return nil, err
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, "Assignment not found", "")
	}

	assignment.Instructions = req.Instructions
	assignment.MaxScore = req.MaxScore
	assignment.DueDate = req.DueDate

	if err := s.repo.Assignment().Update(ctx, nil, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *contentService) ListSubmissions(ctx context.Context, assignmentID uint, caller Caller) ([]models.AssignmentSubmission, error) {
	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceAssignment, assignmentID, caller, "list_submissions"); err != nil {
		return nil, err
	}
	return s.repo.Submission().ListByAssignment(ctx, nil, assignmentID)
}

func (s *contentService) GradeSubmission(ctx context.Context, submissionID uint, req *GradeSubmissionRequest, caller Caller) (*models.AssignmentSubmission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		return nil, mapRepoError(err, "Submission not found", "")
	}

	if _, err := authorize(ctx, nil, s.repo, repositories.ResourceAssignment, submission.AssignmentID, caller, "grade"); err != nil {
		return nil, err
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, nil, submission.AssignmentID)
	if err != nil {
		return nil, mapRepoError(err, "Assignment not found", "")
	}

	if errs := s.validator.GetBusinessValidator().ValidateGrade(req, assignment.MaxScore); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Submission().Grade(ctx, nil, submissionID, *req.Score, req.Feedback, caller.UserID, s.now()); err != nil {
		return nil, mapRepoError(err, "Submission not found", "")
	}

	s.logger.Info("Submission graded", "submission_id", submissionID, "score", *req.Score, "grader_id", caller.UserID)
	return s.repo.Submission().GetByID(ctx, nil, submissionID)
}

// ===== STUDENT ACTIONS =====

func (s *contentService) SubmitAssignment(ctx context.Context, assignmentID uint, req *SubmitAssignmentRequest, userID string) (*models.AssignmentSubmission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	projection, err := resolveOwnership(ctx, nil, s.repo, repositories.ResourceAssignment, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveEnrollment(ctx, userID, projection.CourseID); err != nil {
		return nil, err
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, nil, assignmentID)
	if err != nil {
		return nil, mapRepoError(err, "Assignment not found", "")
	}
	if assignment.DueDate != nil && s.now().After(*assignment.DueDate) {
		return nil, BadRequest("Assignment due date has passed")
	}

	submission := &models.AssignmentSubmission{
		AssignmentID: assignmentID,
		UserID:       userID,
		ContentURL:   req.ContentURL,
		Note:         req.Note,
	}
	if err := s.repo.Submission().Create(ctx, nil, submission); err != nil {
		return nil, mapRepoError(err, "", "You have already submitted this assignment")
	}

	s.logger.Info("Assignment submitted", "assignment_id", assignmentID, "user_id", userID)
	return submission, nil
}

func (s *contentService) CompleteLesson(ctx context.Context, lessonID uint, userID string) (*models.LessonProgress, error) {
	projection, err := resolveOwnership(ctx, nil, s.repo, repositories.ResourceLesson, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveEnrollment(ctx, userID, projection.CourseID); err != nil {
		return nil, err
	}

	return s.repo.Progress().MarkCompleted(ctx, nil, userID, lessonID, s.now())
}

func (s *contentService) GetCourseProgress(ctx context.Context, courseID uint, userID string) (*CourseProgressResponse, error) {
	if _, err := resolveOwnership(ctx, nil, s.repo, repositories.ResourceCourse, courseID); err != nil {
		return nil, err
	}
	if err := s.requireActiveEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}

	lessonIDs, err := s.repo.Lesson().ListIDsByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.Progress().ListCompletedLessonIDs(ctx, nil, userID, lessonIDs)
	if err != nil {
		return nil, err
	}
	if completed == nil {
		completed = []uint{}
	}

	resp := &CourseProgressResponse{
		CourseID:           courseID,
		TotalLessons:       len(lessonIDs),
		CompletedLessons:   len(completed),
		CompletedLessonIDs: completed,
	}
	if len(lessonIDs) > 0 {
		resp.Percent = float64(len(completed)) * 100 / float64(len(lessonIDs))
	}
	return resp, nil
}

func (s *contentService) requireActiveEnrollment(ctx context.Context, userID string, courseID uint) error {
	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return err
	}
	if enrollment == nil || enrollment.Status != models.EnrollmentActive {
		return Forbidden("You need an active enrollment in this course")
	}
	return nil
}
