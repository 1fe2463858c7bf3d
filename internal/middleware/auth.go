package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pharmalink/marketplace-api/internal/guard"
	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/auth"
)

const ContextActor = "actor"

type AuthMiddleware struct {
	authService *auth.Service
	checker     guard.PermissionChecker
}

func NewAuthMiddleware(authService *auth.Service, checker guard.PermissionChecker) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		checker:     checker,
	}
}

// Authenticate verifies the bearer token and sets the actor in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		actor, err := m.authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole allows only the listed roles through.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
		c.Abort()
	}
}

// RequirePermission gates a route behind a named capability. Pharmacy admins
// and super admins pass implicitly; employees need the stored grant. Any
// checker error counts as denial.
func (m *AuthMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}
		if actor.Role == model.RoleSuperAdmin || actor.Role == model.RolePharmacyAdmin {
			c.Next()
			return
		}

		decision := guard.DecidePermission(c.Request.Context(), m.checker, *actor, permission)
		if !decision.Allowed {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor, or nil on unauthenticated routes.
func GetActor(c *gin.Context) *model.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil
	}
	actor, ok := v.(*model.Actor)
	if !ok {
		return nil
	}
	return actor
}
