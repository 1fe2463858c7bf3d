package permission

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/permission"
)

type Handler struct {
	service *permission.Service
}

func NewHandler(service *permission.Service) *Handler {
	return &Handler{service: service}
}

type grantRequest struct {
	Permission string `json:"permission" binding:"required"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	users := r.Group("/users")
	{
		users.GET("/:id/permissions", h.List)

		admins := auth.RequireRole(model.RolePharmacyAdmin, model.RoleSuperAdmin)
		users.POST("/:id/permissions", admins, h.Grant)
		users.DELETE("/:id/permissions/:permission", admins, h.Revoke)
	}
}

func (h *Handler) Grant(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	if err := h.service.Grant(c.Request.Context(), actor, userID, req.Permission); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"granted": req.Permission}))
}

func (h *Handler) Revoke(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	permission := c.Param("permission")
	actor := middleware.GetActor(c)
	if err := h.service.Revoke(c.Request.Context(), actor, userID, permission); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"revoked": permission}))
}

func (h *Handler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	actor := middleware.GetActor(c)
	perms, err := h.service.List(c.Request.Context(), actor, userID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(perms))
}
