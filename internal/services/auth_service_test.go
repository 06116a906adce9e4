package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/email"
	"github.com/SAP-F-2025/lms-service/internal/kvstore"
	"github.com/SAP-F-2025/lms-service/internal/models"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (m *captureMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := codePattern.FindString(m.sent[len(m.sent)-1].PlainText)
	require.NotEmpty(t, code)
	return code
}

type stubGoogle struct {
	identity *GoogleIdentity
	err      error
}

func (g stubGoogle) Verify(string) (*GoogleIdentity, error) {
	return g.identity, g.err
}

type authFixture struct {
	env     *testEnv
	svc     AuthService
	mailer  *captureMailer
	lookups *int
}

func newAuthFixture(t *testing.T, google GoogleTokenVerifier) authFixture {
	env := newTestEnv(t)
	mailer := &captureMailer{}
	lookups := 0

	svc := NewAuthService(env.repo, AuthDependencies{
		Tokens: NewTokenManager("test-secret", time.Hour, "lms-test"),
		Google: google,
		MXLookup: func(_ context.Context, domain string) (bool, error) {
			lookups++
			return domain != "nomail.test", nil
		},
		KV:     kvstore.NewMemoryStore(),
		Mailer: mailer,
		OTP:    config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 5, AttemptWindow: 15 * time.Minute},
	}, env.logger, env.validator)

	return authFixture{env: env, svc: svc, mailer: mailer, lookups: &lookups}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, &RegisterRequest{Email: "Ada@Example.com", Password: "correct-horse", FullName: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.NotEmpty(t, resp.Token)

	parsed, err := f.svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, parsed.UserID)
	assert.Equal(t, models.RoleStudent, parsed.Role)

	_, err = f.svc.Register(ctx, &RegisterRequest{Email: "ada@example.com", Password: "another-pass", FullName: "Ada"})
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.NoError(t, err)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	// example.com was looked up once and then served from the cache
	assert.Equal(t, 1, *f.lookups)
}

func TestAuthService_RegisterRejectsDomainWithoutMX(t *testing.T) {
	f := newAuthFixture(t, nil)

	_, err := f.svc.Register(context.Background(), &RegisterRequest{Email: "a@nomail.test", Password: "password1", FullName: "No Mail"})
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestAuthService_OTPLogin(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestOTP(ctx, &OTPRequest{Email: "new@example.com"}))
	code := f.mailer.lastCode(t)

	resp, err := f.svc.VerifyOTP(ctx, &OTPVerifyRequest{Email: "new@example.com", Code: code, FullName: "New Person"})
	require.NoError(t, err)
	assert.Equal(t, "New Person", resp.User.FullName)
	assert.True(t, resp.User.EmailVerified)

	// codes are single use
	_, err = f.svc.VerifyOTP(ctx, &OTPVerifyRequest{Email: "new@example.com", Code: code})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestAuthService_OTPOnlyNewestCodeWorks(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestOTP(ctx, &OTPRequest{Email: "twice@example.com"}))
	first := f.mailer.lastCode(t)
	require.NoError(t, f.svc.RequestOTP(ctx, &OTPRequest{Email: "twice@example.com"}))
	second := f.mailer.lastCode(t)

	if first != second {
		_, err := f.svc.VerifyOTP(ctx, &OTPVerifyRequest{Email: "twice@example.com", Code: first})
		assert.True(t, errors.Is(err, ErrUnauthorized))
	}
	_, err := f.svc.VerifyOTP(ctx, &OTPVerifyRequest{Email: "twice@example.com", Code: second})
	assert.NoError(t, err)
}

func TestAuthService_OTPLockout(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestOTP(ctx, &OTPRequest{Email: "locked@example.com"}))
	code := f.mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		_, err := f.svc.VerifyOTP(ctx, &OTPVerifyRequest{Email: "locked@example.com", Code: wrong})
		require.True(t, errors.Is(err, ErrUnauthorized), "attempt %d: %v", i+1, err)
	}

	_, err := f.svc.VerifyOTP(ctx, &OTPVerifyRequest{Email: "locked@example.com", Code: code})
	assert.True(t, errors.Is(err, ErrTooManyRequests))
}

func TestAuthService_GoogleLogin(t *testing.T) {
	google := stubGoogle{identity: &GoogleIdentity{Subject: "g-123", Email: "grace@example.com", Name: "Grace"}}
	f := newAuthFixture(t, google)
	ctx := context.Background()

	resp, err := f.svc.GoogleLogin(ctx, &GoogleLoginRequest{IDToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, resp.User.Provider)
	require.NotNil(t, resp.User.GoogleID)
	assert.Equal(t, "g-123", *resp.User.GoogleID)

	again, err := f.svc.GoogleLogin(ctx, &GoogleLoginRequest{IDToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)

	bad := newAuthFixture(t, stubGoogle{err: errors.New("expired")})
	_, err = bad.svc.GoogleLogin(ctx, &GoogleLoginRequest{IDToken: "token"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestAuthService_AdminManagement(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	root := f.env.user(t, models.RoleSuperAdmin)
	req := &CreateAdminRequest{Email: "admin@example.com", Password: "password1", FullName: "Course Admin"}

	_, err := f.svc.CreateAdmin(ctx, req, Caller{UserID: "x", Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, ErrForbidden))

	admin, err := f.svc.CreateAdmin(ctx, req, caller(root))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, err = f.svc.CreateAdmin(ctx, req, caller(root))
	assert.True(t, errors.Is(err, ErrConflict))

	assert.True(t, errors.Is(f.svc.Deactivate(ctx, root.ID, caller(root)), ErrBadRequest))
	assert.True(t, errors.Is(f.svc.Deactivate(ctx, root.ID, caller(admin)), ErrForbidden))
	assert.True(t, errors.Is(f.svc.Deactivate(ctx, "missing", caller(root)), ErrNotFound))

	require.NoError(t, f.svc.Deactivate(ctx, admin.ID, caller(root)))
	_, err = f.svc.Login(ctx, &LoginRequest{Email: "admin@example.com", Password: "password1"})
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestTokenManager(t *testing.T) {
	tokens := NewTokenManager("secret", time.Minute, "lms")
	user := &models.User{ID: "user-1", Role: models.RoleAdmin}

	raw, expiresAt, err := tokens.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	parsed, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Caller{UserID: "user-1", Role: models.RoleAdmin}, *parsed)

	_, err = NewTokenManager("other", time.Minute, "lms").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", -time.Minute, "lms")
	raw, _, err = expired.Issue(user)
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
