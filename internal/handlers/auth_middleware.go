package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextUser     = "user"
)

// ExternalTokenParser verifies bearer tokens issued by an SSO provider.
type ExternalTokenParser interface {
	ParseToken(ctx context.Context, token string) (*casdoor.Identity, error)
}

// AuthMiddleware authenticates bearer tokens. Locally signed tokens are
// tried first; when an external parser is configured it gets the rest.
type AuthMiddleware struct {
	BaseHandler
	auth     services.AuthService
	external ExternalTokenParser
}

// NewAuthMiddleware builds the middleware. external may be nil.
func NewAuthMiddleware(auth services.AuthService, external ExternalTokenParser, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
		external:    external,
	}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header missing or malformed", nil)
			return
		}

		user, err := m.resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) || errors.Is(err, services.ErrNotFound) {
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}
			m.handleServiceError(c, err)
			return
		}
		if !user.IsActive {
			abortWithError(c, http.StatusForbidden, "Account is deactivated", nil)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// resolve loads the account behind token. The role always comes from the
// stored user so deactivation and role changes apply to live tokens.
func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*models.User, error) {
	caller, err := m.auth.ParseToken(token)
	if err == nil {
		return m.auth.GetUser(ctx, caller.UserID)
	}
	if m.external == nil {
		return nil, err
	}

	identity, extErr := m.external.ParseToken(ctx, token)
	if extErr != nil {
		return nil, services.Unauthorized("Invalid or expired token")
	}
	return m.auth.ResolveExternalUser(ctx, identity.Email, identity.FullName, identity.Role)
}

// RequireRole lets the request through only for the listed roles.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCallerFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
			return
		}
		if !slices.Contains(roles, caller.Role) {
			abortWithError(c, http.StatusForbidden, "Insufficient permissions", map[string]interface{}{
				"required": roles,
			})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
