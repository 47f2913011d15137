package middleware

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// IdentityResolver turns a verified user ID into the caller's identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID uint64) (authz.Identity, error)
}

// RequireAuth authenticates the request with a bearer token or, failing
// that, the session cookie, and stores the identity in the context.
func RequireAuth(tokens *services.TokenService, resolver IdentityResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authenticate(c, tokens)
		if !ok {
			apierrors.Abort(c, apierrors.KindUnauthorized, "")
			return
		}

		identity, err := resolver.ResolveIdentity(c.Request.Context(), userID)
		if err != nil {
			apierrors.Respond(c, logger, err)
			return
		}

		c.Set(constants.ContextKeyIdentity, identity)
		c.Next()
	}
}

// authenticate returns the user ID proven by the request
func authenticate(c *gin.Context, tokens *services.TokenService) (uint64, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokens == nil {
			return 0, false
		}
		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			return 0, false
		}
		return claims.UserID, true
	}

	session := sessions.Default(c)
	return toUint64(session.Get(constants.SessionKeyUserID))
}

// RequireRole rejects identities that carry none of roles. It must run after
// RequireAuth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetIdentity(c)
		if !exists {
			apierrors.Abort(c, apierrors.KindUnauthorized, "")
			return
		}

		if !authz.HasRole(identity, roles...) {
			apierrors.Abort(c, apierrors.KindForbidden, "")
			return
		}

		c.Next()
	}
}

// GetIdentity retrieves the current identity from context
func GetIdentity(c *gin.Context) (authz.Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return authz.Identity{}, false
	}

	identity, ok := value.(authz.Identity)
	return identity, ok
}

func toUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
