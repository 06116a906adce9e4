package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

const notifyTimeout = 10 * time.Second

// txRunner is embedded by services that need transactions.
type txRunner struct {
	db *gorm.DB
}

func (t txRunner) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// loadEnrollableCourse returns the course if it exists and can take enrollments.
func loadEnrollableCourse(ctx context.Context, tx *gorm.DB, repo repositories.Repository, courseID uint) (*models.Course, error) {
	course, err := repo.Course().GetByID(ctx, tx, courseID)
	if err != nil {
		return nil, mapRepoError(err, "Course not found", "")
	}
	if !course.IsEnrollable() {
		return nil, BadRequest("Course is not published")
	}
	return course, nil
}

// notification is one fire-and-forget dispatch.
type notification struct {
	userID  string
	kind    models.NotificationType
	title   string
	message string
	data    map[string]interface{}
}

// dispatch sends n on its own goroutine with a detached, time-limited
// context. Failures are logged and never reach the caller.
func dispatch(ctx context.Context, notifier Notifier, logger *slog.Logger, n notification) {
	if notifier == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Notification dispatch panicked", "panic", r, "user_id", n.userID, "type", n.kind)
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := notifier.Notify(sendCtx, n.userID, n.kind, n.title, n.message, n.data); err != nil {
			logger.Error("Failed to dispatch notification", "error", err, "user_id", n.userID, "type", n.kind)
		}
	}()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
