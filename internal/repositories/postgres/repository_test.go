package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
)

type fixture struct {
	db   *gorm.DB
	repo *PostgreSQLRepository
}

func newFixture(t *testing.T) fixture {
	db := testutil.NewTestDB(t)
	return fixture{db: db, repo: NewPostgreSQLRepository(RepositoryConfig{DB: db})}
}

func (f fixture) course(t *testing.T, owner, slug string, status models.CourseStatus) *models.Course {
	c := &models.Course{Title: slug, Slug: slug, Status: status, CreatedByID: owner, Price: 100}
	require.NoError(t, f.repo.Course().Create(context.Background(), nil, c))
	return c
}

func (f fixture) module(t *testing.T, courseID uint) *models.CourseModule {
	ctx := context.Background()
	order, err := f.repo.Module().NextOrder(ctx, nil, courseID)
	require.NoError(t, err)
	m := &models.CourseModule{CourseID: courseID, Title: "module", Order: order}
	require.NoError(t, f.repo.Module().Create(ctx, nil, m))
	return m
}

func (f fixture) lesson(t *testing.T, moduleID uint, typ models.LessonType) *models.Lesson {
	ctx := context.Background()
	order, err := f.repo.Lesson().NextOrder(ctx, nil, moduleID)
	require.NoError(t, err)
	l := &models.Lesson{ModuleID: moduleID, Title: "lesson", Type: typ, Order: order}
	require.NoError(t, f.repo.Lesson().Create(ctx, nil, l))
	return l
}

func TestOwnership_Resolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course := f.course(t, "owner-1", "go-basics", models.CourseStatusDraft)
	module := f.module(t, course.ID)
	lesson := f.lesson(t, module.ID, models.LessonTypeAssignment)
	assignment := &models.Assignment{LessonID: lesson.ID, MaxScore: 10}
	require.NoError(t, f.repo.Assignment().Create(ctx, nil, assignment))

	tests := []struct {
		kind repositories.ResourceKind
		id   uint
	}{
		{repositories.ResourceCourse, course.ID},
		{repositories.ResourceModule, module.ID},
		{repositories.ResourceLesson, lesson.ID},
		{repositories.ResourceAssignment, assignment.ID},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := f.repo.Ownership().Resolve(ctx, nil, tt.kind, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.id, p.ResourceID)
			assert.Equal(t, course.ID, p.CourseID)
			assert.Equal(t, "owner-1", p.OwnerID)
		})
	}

	_, err := f.repo.Ownership().Resolve(ctx, nil, repositories.ResourceLesson, 9999)
	assert.True(t, repositories.IsNotFoundError(err))

	require.NoError(t, f.repo.Course().SoftDelete(ctx, nil, course.ID))
	_, err = f.repo.Ownership().Resolve(ctx, nil, repositories.ResourceAssignment, assignment.ID)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestSiblingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course := f.course(t, "owner", "ordering", models.CourseStatusDraft)
	first := f.module(t, course.ID)
	second := f.module(t, course.ID)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)

	id, order, err := f.repo.Module().FindAdjacent(ctx, nil, course.ID, second.Order, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)
	assert.Equal(t, 1, order)

	_, _, err = f.repo.Module().FindAdjacent(ctx, nil, course.ID, first.Order, true)
	assert.True(t, repositories.IsNotFoundError(err))

	_, _, err = f.repo.Module().FindAdjacent(ctx, nil, course.ID, second.Order, false)
	assert.True(t, repositories.IsNotFoundError(err))

	// Two siblings can never share a position.
	err = f.repo.Module().UpdateOrder(ctx, nil, second.ID, first.Order)
	assert.True(t, repositories.IsDuplicateError(err))
}

func TestProgress_MarkCompletedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	p, err := f.repo.Progress().MarkCompleted(ctx, nil, "student", 7, first)
	require.NoError(t, err)
	assert.True(t, p.Completed)

	p2, err := f.repo.Progress().MarkCompleted(ctx, nil, "student", 7, first.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
	require.NotNil(t, p2.CompletedAt)
	assert.True(t, p2.CompletedAt.Equal(first))

	ids, err := f.repo.Progress().ListCompletedLessonIDs(ctx, nil, "student", []uint{7, 8})
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, ids)
}

func TestPayment_OnePendingPerCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := &models.Payment{UserID: "u1", CourseID: 1, Amount: 50, SlipURL: "https://x/1.png", Status: models.PaymentPending}
	require.NoError(t, f.repo.Payment().Create(ctx, nil, p1))

	dup := &models.Payment{UserID: "u1", CourseID: 1, Amount: 50, SlipURL: "https://x/2.png", Status: models.PaymentPending}
	err := f.repo.Payment().Create(ctx, nil, dup)
	assert.True(t, repositories.IsDuplicateError(err))

	changed, err := f.repo.Payment().Review(ctx, nil, p1.ID, models.PaymentRejected, "admin", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.repo.Payment().Review(ctx, nil, p1.ID, models.PaymentVerified, "admin", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	// Once the first slip is resolved a new one is accepted.
	retry := &models.Payment{UserID: "u1", CourseID: 1, Amount: 50, SlipURL: "https://x/3.png", Status: models.PaymentPending}
	require.NoError(t, f.repo.Payment().Create(ctx, nil, retry))
}

func TestEnrollment_TransitionStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := &models.Enrollment{UserID: "u1", CourseID: 3, Status: models.EnrollmentPending}
	require.NoError(t, f.repo.Enrollment().Create(ctx, nil, e))

	changed, err := f.repo.Enrollment().TransitionStatus(ctx, nil, e.ID, models.EnrollmentActive, models.EnrollmentPending)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.repo.Enrollment().TransitionStatus(ctx, nil, e.ID, models.EnrollmentActive, models.EnrollmentPending)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := f.repo.Enrollment().GetByUserAndCourse(ctx, nil, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, got.Status)

	missing, err := f.repo.Enrollment().GetByUserAndCourse(ctx, nil, "u1", 4)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCourse_ListPublished(t *testing.T) {
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db, RedisClient: client})
	ctx := context.Background()

	for _, c := range []*models.Course{
		{Title: "Go Concurrency", Slug: "go-concurrency", Status: models.CourseStatusPublished, CreatedByID: "a"},
		{Title: "Rust Basics", Slug: "rust-basics", Status: models.CourseStatusPublished, CreatedByID: "a"},
		{Title: "Go Drafts", Slug: "go-drafts", Status: models.CourseStatusDraft, CreatedByID: "a"},
	} {
		require.NoError(t, repo.Course().Create(ctx, nil, c))
	}

	courses, total, err := repo.Course().ListPublished(ctx, nil, repositories.CourseFilters{Search: "go", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, courses, 1)
	assert.Equal(t, "go-concurrency", courses[0].Slug)

	assert.Eventually(t, func() bool {
		return mr.Exists("course:list:go:10:0")
	}, time.Second, 10*time.Millisecond)

	bySlug, err := repo.Course().GetPublishedBySlug(ctx, nil, "rust-basics")
	require.NoError(t, err)
	assert.Equal(t, "Rust Basics", bySlug.Title)

	_, err = repo.Course().GetPublishedBySlug(ctx, nil, "go-drafts")
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestNotification_MarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := &models.Notification{UserID: "u1", Type: models.NotificationPaymentVerified, Title: "Verified"}
	require.NoError(t, f.repo.Notification().Create(ctx, nil, n))

	_, err := f.repo.Notification().MarkRead(ctx, nil, n.ID, "someone-else", time.Now())
	assert.True(t, repositories.IsNotFoundError(err))

	ok, err := f.repo.Notification().MarkRead(ctx, nil, n.ID, "u1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	items, total, err := f.repo.Notification().ListByUser(ctx, nil, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.True(t, items[0].IsRead)
}
