package casdoor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/models"
)

var ErrMissingEmail = errors.New("casdoor token carries no email")

// Identity is the part of a Casdoor account the service maps onto local users.
type Identity struct {
	ExternalID string          `json:"externalId"`
	Email      string          `json:"email"`
	FullName   string          `json:"fullName"`
	Role       models.UserRole `json:"role"`
}

type IdentityCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client

	cachePrefix string
	cacheTTL    time.Duration
}

// NewIdentityCasdoor verifies Casdoor-issued tokens. redisClient may be nil.
func NewIdentityCasdoor(cfg config.CasdoorConfig, redisClient *redis.Client) *IdentityCasdoor {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &IdentityCasdoor{
		client:      client,
		redis:       redisClient,
		cachePrefix: "casdoor:token:",
		cacheTTL:    5 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (u *IdentityCasdoor) getCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return u.cachePrefix + hex.EncodeToString(sum[:])
}

func (u *IdentityCasdoor) getFromCache(ctx context.Context, token string) (*Identity, error) {
	if u.redis == nil {
		return nil, nil
	}

	data, err := u.redis.Get(ctx, u.getCacheKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached identity: %w", err)
	}
	return &identity, nil
}

func (u *IdentityCasdoor) setCache(ctx context.Context, token string, identity *Identity, expiresAt time.Time) error {
	if u.redis == nil {
		return nil
	}

	ttl := u.cacheTTL
	if !expiresAt.IsZero() {
		if left := time.Until(expiresAt); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity for cache: %w", err)
	}
	return u.redis.Set(ctx, u.getCacheKey(token), data, ttl).Err()
}

// ===== TOKEN VERIFICATION =====

// ParseToken verifies a Casdoor access token and returns the identity it names.
func (u *IdentityCasdoor) ParseToken(ctx context.Context, token string) (*Identity, error) {
	if cached, err := u.getFromCache(ctx, token); err == nil && cached != nil {
		return cached, nil
	}

	claims, err := u.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casdoor token: %w", err)
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	// a cache write failure only costs a re-parse
	_ = u.setCache(ctx, token, identity, expiresAt)

	return identity, nil
}

// ===== CONVERSION METHODS =====

func identityFromClaims(claims *casdoorsdk.Claims) (*Identity, error) {
	email := strings.TrimSpace(claims.User.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	name := claims.User.DisplayName
	if name == "" {
		name = claims.User.Name
	}

	return &Identity{
		ExternalID: claims.User.Id,
		Email:      email,
		FullName:   name,
		Role:       convertCasdoorRoles(&claims.User),
	}, nil
}

// convertCasdoorRoles picks the strongest mapped role. Casdoor admins map to
// ADMIN; SUPER_ADMIN must be granted by an explicit role.
func convertCasdoorRoles(user *casdoorsdk.User) models.UserRole {
	role := mapSingleCasdoorRole(user.Type)
	for _, r := range user.Roles {
		if r == nil {
			continue
		}
		if mapped := mapSingleCasdoorRole(r.Name); rank(mapped) > rank(role) {
			role = mapped
		}
	}
	if user.IsAdmin && rank(role) < rank(models.RoleAdmin) {
		role = models.RoleAdmin
	}
	return role
}

func mapSingleCasdoorRole(name string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "super_admin", "superadmin", "super-admin":
		return models.RoleSuperAdmin
	case "admin", "administrator", "teacher", "instructor":
		return models.RoleAdmin
	default:
		return models.RoleStudent
	}
}

func rank(r models.UserRole) int {
	switch r {
	case models.RoleSuperAdmin:
		return 2
	case models.RoleAdmin:
		return 1
	default:
		return 0
	}
}
