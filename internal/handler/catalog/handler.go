package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/catalog"
	"github.com/pharmalink/marketplace-api/internal/service/permission"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes exposes the browse endpoints without authentication.
// Guests can see the catalog; only staff can change it.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	medications := r.Group("/medications")
	{
		medications.GET("", h.List)
		medications.GET("/:id", h.Get)
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	medications := r.Group("/medications")
	{
		staff := auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee)
		medications.POST("", staff, auth.RequirePermission(permission.PermManageCatalog), h.Create)
		medications.PUT("/:id", staff, auth.RequirePermission(permission.PermManageCatalog), h.Update)
		medications.DELETE("/:id", staff, auth.RequirePermission(permission.PermManageCatalog), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	if actor.PharmacyID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("no pharmacy bound to account"))
		return
	}

	medication, err := h.service.Create(c.Request.Context(), *actor, *actor.PharmacyID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(medication))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	medication, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(medication))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.MedicationFilters{
		Category:   c.Query("category"),
		SearchTerm: c.Query("search"),
		InStock:    c.Query("in_stock") == "true",
	}
	if raw := c.Query("pharmacyId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
			return
		}
		filters.PharmacyID = &id
	}
	filters.Page = handler.IntQuery(c, "page")
	filters.PageSize = handler.IntQuery(c, "page_size")

	medications, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(medications))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	var req model.UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	medication, err := h.service.Update(c.Request.Context(), *actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(medication))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	actor := middleware.GetActor(c)
	if err := h.service.Delete(c.Request.Context(), *actor, id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": id}))
}
