package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type sentNotification struct {
	UserID string
	Kind   models.NotificationType
	Data   map[string]interface{}
}

// recordingNotifier collects dispatched notifications. Dispatch is
// asynchronous, so tests read them through wait.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	ch   chan sentNotification
	err  error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan sentNotification, 32)}
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, kind models.NotificationType, _, _ string, data map[string]interface{}) error {
	s := sentNotification{UserID: userID, Kind: kind, Data: data}
	n.mu.Lock()
	n.sent = append(n.sent, s)
	err := n.err
	n.mu.Unlock()
	n.ch <- s
	return err
}

func (n *recordingNotifier) wait(t *testing.T) sentNotification {
	t.Helper()
	select {
	case s := <-n.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not dispatched")
		return sentNotification{}
	}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	notifier  *recordingNotifier
	logger    *slog.Logger
	validator *validator.Validator
}

func newTestEnv(t *testing.T) *testEnv {
	db := testutil.NewTestDB(t)
	return &testEnv{
		db:        db,
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db}),
		notifier:  newRecordingNotifier(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator: validator.New(),
	}
}

func (e *testEnv) user(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		FullName: "Test " + string(role),
		Email:    uuid.NewString()[:8] + "@example.com",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.repo.User().Create(context.Background(), nil, u))
	return u
}

func (e *testEnv) course(t *testing.T, ownerID string, status models.CourseStatus) *models.Course {
	t.Helper()
	c := &models.Course{
		Title:       "Course",
		Slug:        "course-" + uuid.NewString()[:8],
		Price:       1000,
		Status:      status,
		CreatedByID: ownerID,
	}
	require.NoError(t, e.repo.Course().Create(context.Background(), nil, c))
	return c
}

func (e *testEnv) enrollment(t *testing.T, userID string, courseID uint, status models.EnrollmentStatus) *models.Enrollment {
	t.Helper()
	en := &models.Enrollment{UserID: userID, CourseID: courseID, Status: status}
	require.NoError(t, e.repo.Enrollment().Create(context.Background(), nil, en))
	return en
}

func (e *testEnv) countEnrollments(t *testing.T, userID string, courseID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error)
	return n
}

func caller(u *models.User) Caller {
	return Caller{UserID: u.ID, Role: u.Role}
}
