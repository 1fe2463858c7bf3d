package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/delivery"
)

type Handler struct {
	service *delivery.Service
}

func NewHandler(service *delivery.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	deliveries := r.Group("/deliveries")
	{
		deliveries.GET("/available", auth.RequireRole(model.RoleDelivery), h.ListAvailable)
		deliveries.GET("/my-deliveries", auth.RequireRole(model.RoleDelivery), h.ListMine)
		deliveries.GET("/pharmacy/:pharmacyId",
			auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee), h.ListForPharmacy)
		deliveries.POST("/assign",
			auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee), h.Assign)
		deliveries.POST("/:id/accept", auth.RequireRole(model.RoleDelivery), h.Accept)
		deliveries.PATCH("/:id/status",
			auth.RequireRole(model.RoleDelivery, model.RoleSuperAdmin), h.UpdateStatus)
	}
}

// ListAvailable returns unclaimed deliveries for READY orders of one pharmacy.
func (h *Handler) ListAvailable(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Query("pharmacyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	actor := middleware.GetActor(c)
	deliveries, err := h.service.ListAvailable(c.Request.Context(), *actor, pharmacyID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deliveries))
}

func (h *Handler) ListMine(c *gin.Context) {
	actor := middleware.GetActor(c)
	deliveries, err := h.service.ListMine(c.Request.Context(), *actor)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deliveries))
}

func (h *Handler) ListForPharmacy(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Param("pharmacyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	filters := &model.DeliveryFilters{
		Status: model.DeliveryStatus(c.Query("status")),
	}
	filters.Page = handler.IntQuery(c, "page")
	filters.PageSize = handler.IntQuery(c, "page_size")

	actor := middleware.GetActor(c)
	deliveries, err := h.service.ListForPharmacy(c.Request.Context(), *actor, pharmacyID, filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deliveries))
}

// Assign lets pharmacy staff hand a READY order to a chosen courier. Binds
// from query parameters.
func (h *Handler) Assign(c *gin.Context) {
	var req model.AssignDeliveryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	delivery, err := h.service.Assign(c.Request.Context(), *actor, req.OrderID, req.CourierID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(delivery))
}

// Accept claims an unassigned delivery for the calling courier. Exactly one
// of several racing couriers wins; the rest get a conflict.
func (h *Handler) Accept(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid delivery ID"))
		return
	}

	actor := middleware.GetActor(c)
	delivery, err := h.service.Accept(c.Request.Context(), *actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(delivery))
}

// UpdateStatus accepts the target status either as a query parameter or in
// the body.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid delivery ID"))
		return
	}

	var req model.UpdateDeliveryStatusRequest
	if c.Query("status") != "" {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	delivery, err := h.service.Transition(c.Request.Context(), *actor, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(delivery))
}
