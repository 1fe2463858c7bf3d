package pharmacy

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/pharmacy"
)

type Handler struct {
	service *pharmacy.Service
}

func NewHandler(service *pharmacy.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes exposes the browse endpoints without authentication.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	pharmacies := r.Group("/pharmacies")
	{
		pharmacies.GET("", h.List)
		pharmacies.GET("/:id", h.Get)
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	pharmacies := r.Group("/pharmacies")
	{
		pharmacies.POST("", auth.RequireRole(model.RolePharmacyAdmin), h.Register)
		pharmacies.PUT("/:id", auth.RequireRole(model.RolePharmacyAdmin, model.RoleSuperAdmin), h.Update)
		pharmacies.PATCH("/:id/status", auth.RequireRole(model.RoleSuperAdmin), h.UpdateStatus)
		pharmacies.GET("/:id/couriers", auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee), h.ListCouriers)
		pharmacies.GET("/:id/employees", auth.RequireRole(model.RolePharmacyAdmin), h.ListEmployees)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.CreatePharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	p, err := h.service.Register(c.Request.Context(), *actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.PharmacyFilters{
		Status:     model.PharmacyStatus(c.Query("status")),
		SearchTerm: c.Query("search"),
	}
	filters.Page = handler.IntQuery(c, "page")
	filters.PageSize = handler.IntQuery(c, "page_size")

	pharmacies, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pharmacies))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	var req model.UpdatePharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	p, err := h.service.Update(c.Request.Context(), *actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	var req model.UpdatePharmacyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	p, err := h.service.UpdateStatus(c.Request.Context(), *actor, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) ListCouriers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	actor := middleware.GetActor(c)
	activeOnly := c.Query("active") == "true"
	couriers, err := h.service.ListCouriers(c.Request.Context(), *actor, id, activeOnly)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(couriers))
}

func (h *Handler) ListEmployees(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	actor := middleware.GetActor(c)
	employees, err := h.service.ListEmployees(c.Request.Context(), *actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(employees))
}
