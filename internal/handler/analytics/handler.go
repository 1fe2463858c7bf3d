package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/analytics"
	"github.com/pharmalink/marketplace-api/internal/service/permission"
)

type Handler struct {
	service *analytics.Service
}

func NewHandler(service *analytics.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/analytics")
	{
		group.GET("/pharmacies/:pharmacyId",
			auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee, model.RoleSuperAdmin),
			auth.RequirePermission(permission.PermViewAnalytics),
			h.PharmacyStats)
		group.GET("/platform", auth.RequireRole(model.RoleSuperAdmin), h.PlatformStats)
	}
}

func (h *Handler) PharmacyStats(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Param("pharmacyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	actor := middleware.GetActor(c)
	stats, err := h.service.PharmacyStats(c.Request.Context(), actor, pharmacyID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) PlatformStats(c *gin.Context) {
	actor := middleware.GetActor(c)
	stats, err := h.service.PlatformStats(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
