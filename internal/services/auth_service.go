package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/email"
	"github.com/SAP-F-2025/lms-service/internal/kvstore"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

const otpFailPrefix = "otp:fail:"

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

type GoogleTokenVerifier interface {
	Verify(idToken string) (*GoogleIdentity, error)
}

type googleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) GoogleTokenVerifier {
	return &googleVerifier{clientID: clientID}
}

func (g *googleVerifier) Verify(idToken string) (*GoogleIdentity, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{g.clientID}); err != nil {
		return nil, err
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, err
	}
	return &GoogleIdentity{Subject: claimSet.Sub, Email: claimSet.Email, Name: claimSet.Name}, nil
}

// MXLookup reports whether domain has at least one mail exchanger.
type MXLookup func(ctx context.Context, domain string) (bool, error)

func LookupMX(ctx context.Context, domain string) (bool, error) {
	records, err := net.DefaultResolver.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}
	return len(records) > 0, nil
}

// mxCache remembers lookups for the life of the process. It is not shared
// between replicas.
type mxCache struct {
	mu      sync.RWMutex
	domains map[string]bool
	lookup  MXLookup
}

func newMXCache(lookup MXLookup) *mxCache {
	return &mxCache{domains: make(map[string]bool), lookup: lookup}
}

func (c *mxCache) accepts(ctx context.Context, address string) (bool, error) {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return false, nil
	}
	domain := strings.ToLower(address[at+1:])

	c.mu.RLock()
	ok, cached := c.domains[domain]
	c.mu.RUnlock()
	if cached {
		return ok, nil
	}

	ok, err := c.lookup(ctx, domain)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.domains[domain] = ok
	c.mu.Unlock()
	return ok, nil
}

type authService struct {
	repo      repositories.Repository
	tokens    *TokenManager
	google    GoogleTokenVerifier
	mx        *mxCache
	kv        kvstore.Store
	mailer    email.Sender
	otp       config.OTPConfig
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

type AuthDependencies struct {
	Tokens   *TokenManager
	Google   GoogleTokenVerifier
	MXLookup MXLookup
	KV       kvstore.Store
	Mailer   email.Sender
	OTP      config.OTPConfig
}

func NewAuthService(repo repositories.Repository, deps AuthDependencies, logger *slog.Logger, validator *validator.Validator) AuthService {
	lookup := deps.MXLookup
	if lookup == nil {
		lookup = LookupMX
	}
	kv := deps.KV
	if kv == nil {
		kv = kvstore.NewMemoryStore()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = email.NewLogSender(logger)
	}

	return &authService{
		repo:      repo,
		tokens:    deps.Tokens,
		google:    deps.Google,
		mx:        newMXCache(lookup),
		kv:        kv,
		mailer:    mailer,
		otp:       deps.OTP,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	address := normalizeEmail(req.Email)

	if err := s.checkDomain(ctx, address); err != nil {
		return nil, err
	}

	if _, err := s.repo.User().GetByEmail(ctx, nil, address); err == nil {
		return nil, Conflict("Email is already registered")
	} else if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        address,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Provider:     models.ProviderEmail,
		IsActive:     true,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, mapRepoError(err, "", "Email is already registered")
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return s.issue(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, Unauthorized("Invalid email or password")
	}

	return s.issue(ctx, user)
}

// RequestOTP replaces any open code for the address and mails a new one.
func (s *authService) RequestOTP(ctx context.Context, req *OTPRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	address := normalizeEmail(req.Email)

	if err := s.checkDomain(ctx, address); err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}

	now := s.now()
	if err := s.repo.OTP().InvalidateActive(ctx, nil, address, models.OTPPurposeLogin, now); err != nil {
		return err
	}
	err = s.repo.OTP().Create(ctx, nil, &models.OTPCode{
		Email:     address,
		CodeHash:  string(hash),
		Purpose:   models.OTPPurposeLogin,
		ExpiresAt: now.Add(s.otp.TTL),
	})
	if err != nil {
		return err
	}

	minutes := int(s.otp.TTL.Minutes())
	err = s.mailer.Send(ctx, email.Message{
		To:        address,
		Subject:   "Your login code",
		PlainText: fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, minutes),
		HTML:      fmt.Sprintf("<p>Your login code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes),
	})
	if err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	s.logger.Info("OTP issued", "email", address)
	return nil
}

// VerifyOTP checks the newest open code. Failures count against the address
// for the attempt window; a successful check creates the account if needed.
func (s *authService) VerifyOTP(ctx context.Context, req *OTPVerifyRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	address := normalizeEmail(req.Email)
	failKey := otpFailPrefix + address

	if s.otpLocked(ctx, failKey) {
		return nil, newServiceError(ErrTooManyRequests, "Too many failed attempts, try again later")
	}

	now := s.now()
	otp, err := s.repo.OTP().GetLatestActive(ctx, nil, address, models.OTPPurposeLogin, now)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, err
	}
	if otp == nil || bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(req.Code)) != nil {
		if _, err := s.kv.Incr(ctx, failKey, s.otp.AttemptWindow); err != nil {
			s.logger.Warn("Failed to count otp attempt", "error", err)
		}
		return nil, Unauthorized("Invalid or expired code")
	}

	if err := s.repo.OTP().MarkUsed(ctx, nil, otp.ID, now); err != nil {
		return nil, mapRepoError(err, "Invalid or expired code", "")
	}
	if err := s.kv.Delete(ctx, failKey); err != nil {
		s.logger.Warn("Failed to reset otp attempts", "error", err)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, address)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, err
		}
		name := strings.TrimSpace(req.FullName)
		if name == "" {
			name = address[:strings.Index(address, "@")]
		}
		user = &models.User{
			FullName:      name,
			Email:         address,
			Role:          models.RoleStudent,
			Provider:      models.ProviderEmail,
			IsActive:      true,
			EmailVerified: true,
		}
		if err := s.repo.User().Create(ctx, nil, user); err != nil {
			return nil, mapRepoError(err, "", "Email is already registered")
		}
		s.logger.Info("User created from otp login", "user_id", user.ID)
	} else if !user.EmailVerified {
		user.EmailVerified = true
		if err := s.repo.User().Update(ctx, nil, user); err != nil {
			return nil, err
		}
	}

	return s.issue(ctx, user)
}

func (s *authService) otpLocked(ctx context.Context, key string) bool {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("Failed to read otp attempts", "error", err)
		}
		return false
	}
	n, _ := strconv.Atoi(raw)
	return n >= s.otp.MaxAttempts
}

func (s *authService) GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.google == nil {
		return nil, BadRequest("Google login is not configured")
	}

	identity, err := s.google.Verify(req.IDToken)
	if err != nil {
		s.logger.Warn("Google token rejected", "error", err)
		return nil, Unauthorized("Invalid Google ID token")
	}
	if identity.Email == "" {
		return nil, Unauthorized("Google account has no email address")
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, identity.Email)
	switch {
	case err == nil:
		if user.GoogleID == nil {
			user.GoogleID = &identity.Subject
			user.EmailVerified = true
			if err := s.repo.User().Update(ctx, nil, user); err != nil {
				return nil, err
			}
		}
	case repositories.IsNotFoundError(err):
		name := identity.Name
		if name == "" {
			name = identity.Email
		}
		user = &models.User{
			FullName:      name,
			Email:         identity.Email,
			Role:          models.RoleStudent,
			Provider:      models.ProviderGoogle,
			GoogleID:      &identity.Subject,
			IsActive:      true,
			EmailVerified: true,
		}
		if err := s.repo.User().Create(ctx, nil, user); err != nil {
			return nil, mapRepoError(err, "", "Email is already registered")
		}
		s.logger.Info("User created from google login", "user_id", user.ID)
	default:
		return nil, err
	}

	return s.issue(ctx, user)
}

func (s *authService) CreateAdmin(ctx context.Context, req *CreateAdminRequest, caller Caller) (*models.User, error) {
	if caller.Role != models.RoleSuperAdmin {
		return nil, NewPermissionError(caller.UserID, 0, "user", "create admin", "only super admins can create admins")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:      strings.TrimSpace(req.FullName),
		Email:         normalizeEmail(req.Email),
		PasswordHash:  string(hash),
		Role:          models.RoleAdmin,
		Provider:      models.ProviderEmail,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, mapRepoError(err, "", "Email is already registered")
	}

	s.logger.Info("Admin created", "user_id", user.ID, "created_by", caller.UserID)
	return user, nil
}

func (s *authService) Deactivate(ctx context.Context, userID string, caller Caller) error {
	if caller.Role != models.RoleSuperAdmin {
		return NewPermissionError(caller.UserID, 0, "user", "deactivate", "only super admins can deactivate users")
	}
	if userID == caller.UserID {
		return BadRequest("You cannot deactivate your own account")
	}

	if err := s.repo.User().SetActive(ctx, nil, userID, false); err != nil {
		return mapRepoError(err, "User not found", "")
	}

	s.logger.Info("User deactivated", "user_id", userID, "by", caller.UserID)
	return nil
}

func (s *authService) ParseToken(token string) (*Caller, error) {
	caller, err := s.tokens.Parse(token)
	if err != nil {
		return nil, Unauthorized("Invalid or expired token")
	}
	return caller, nil
}

// ResolveExternalUser links an SSO identity to a local account by email. The
// role is applied only when the account is created.
func (s *authService) ResolveExternalUser(ctx context.Context, address, fullName string, role models.UserRole) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, nil, address)
	if err == nil {
		if !user.IsActive {
			return nil, Forbidden("Account is deactivated")
		}
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	if role == "" {
		role = models.RoleStudent
	}
	if fullName == "" {
		fullName = address
	}
	user = &models.User{
		FullName:      fullName,
		Email:         address,
		Role:          role,
		Provider:      models.ProviderSSO,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return s.repo.User().GetByEmail(ctx, nil, address)
		}
		return nil, err
	}

	s.logger.Info("User created from sso", "user_id", user.ID)
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, mapRepoError(err, "User not found", "")
	}
	return user, nil
}

func (s *authService) checkDomain(ctx context.Context, address string) error {
	ok, err := s.mx.accepts(ctx, address)
	if err != nil {
		s.logger.Warn("MX lookup failed", "error", err, "email", address)
		return BadRequest("Could not verify the email domain")
	}
	if !ok {
		return BadRequest("Email domain cannot receive mail")
	}
	return nil
}

func (s *authService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	if !user.IsActive {
		return nil, Forbidden("Account is deactivated")
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.User().TouchLogin(ctx, nil, user.ID, now); err != nil {
		s.logger.Warn("Failed to record login time", "error", err, "user_id", user.ID)
	} else {
		user.LastLoginAt = &now
	}

	return &AuthResponse{Token: token, ExpiresAt: expiresAt.Unix(), User: user}, nil
}

func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// generateOTP returns a uniformly random six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
