package navigation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pharmalink/marketplace-api/internal/guard"
	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/auth"
)

// Handler answers navigation checks for SPA clients: given a path (and
// optionally a permission), may the caller go there or where should they be
// redirected instead.
type Handler struct {
	authService *auth.Service
	checker     guard.PermissionChecker
}

func NewHandler(authService *auth.Service, checker guard.PermissionChecker) *Handler {
	return &Handler{authService: authService, checker: checker}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/navigation/check", h.Check)
}

// Check works for both anonymous and authenticated callers; a bad token is
// treated as anonymous rather than rejected.
func (h *Handler) Check(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("path is required"))
		return
	}

	var (
		actor         *model.Actor
		authenticated bool
	)
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if a, err := h.authService.ValidateToken(c.Request.Context(), parts[1]); err == nil {
				actor = a
				authenticated = true
			}
		}
	}

	var role model.Role
	if actor != nil {
		role = actor.Role
	}

	decision := guard.Decide(role, authenticated, path)
	if decision.Allowed && authenticated {
		if permission := c.Query("permission"); permission != "" {
			decision = guard.DecidePermission(c.Request.Context(), h.checker, *actor, permission)
		}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(decision))
}
