package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/kvstore"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	repo   repositories.Repository
	tokens *services.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	logger := discardLogger()
	tokens := services.NewTokenManager("handler-test-secret", time.Hour, "lms-test")
	v := validator.New()

	sm := services.NewServiceManager(db, repo, logger.Slog(), v, services.Dependencies{
		Tokens:   tokens,
		KV:       kvstore.NewMemoryStore(),
		MXLookup: func(context.Context, string) (bool, error) { return true, nil },
	})
	require.NoError(t, sm.Initialize(context.Background()))

	router := gin.New()
	SetupMiddleware(router, logger)
	NewHandlerManager(sm, v, logger, HandlerOptions{
		Store: kvstore.NewMemoryStore(),
		Upload: config.UploadConfig{
			MaxSlipBytes:     1024,
			SlipCheckTimeout: 2 * time.Second,
			RateLimit:        3,
			RateWindow:       time.Minute,
		},
	}).SetupRoutes(router)

	return &testServer{router: router, db: db, repo: repo, tokens: tokens}
}

func (s *testServer) user(t *testing.T, role models.UserRole) (*models.User, string) {
	t.Helper()
	u := &models.User{
		FullName: "Test " + string(role),
		Email:    uuid.NewString()[:8] + "@example.com",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, s.repo.User().Create(context.Background(), nil, u))
	token, _, err := s.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) publishedCourse(t *testing.T, ownerID string) *models.Course {
	t.Helper()
	c := &models.Course{
		Title:       "Course",
		Slug:        "course-" + uuid.NewString()[:8],
		Price:       1000,
		Status:      models.CourseStatusPublished,
		CreatedByID: ownerID,
	}
	require.NoError(t, s.repo.Course().Create(context.Background(), nil, c))
	return c
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the response; data is left raw for the caller.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// slipServer answers HEAD requests with the given type and length.
func slipServer(t *testing.T, contentType, length string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		if length != "" {
			w.Header().Set("Content-Length", length)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}
