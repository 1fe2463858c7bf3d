package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/order"
)

type Handler struct {
	service *order.Service
}

func NewHandler(service *order.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	orders := r.Group("/orders")
	{
		orders.POST("", auth.RequireRole(model.RolePatient), h.Create)
		orders.GET("/my-orders", auth.RequireRole(model.RolePatient), h.ListMine)
		orders.GET("/pharmacy-orders/:pharmacyId",
			auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee), h.ListForPharmacy)
		orders.GET("/:id", h.Get)
		orders.PATCH("/:id/status",
			auth.RequireRole(model.RolePharmacyAdmin, model.RolePharmacyEmployee, model.RoleSuperAdmin),
			h.UpdateStatus)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	order, err := h.service.Create(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(order))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	actor := middleware.GetActor(c)
	order, err := h.service.Get(c.Request.Context(), *actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(order))
}

func (h *Handler) ListMine(c *gin.Context) {
	filters := &model.OrderFilters{
		Status: model.OrderStatus(c.Query("status")),
	}
	filters.Page = handler.IntQuery(c, "page")
	filters.PageSize = handler.IntQuery(c, "page_size")

	actor := middleware.GetActor(c)
	orders, err := h.service.ListForPatient(c.Request.Context(), actor.UserID, filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

func (h *Handler) ListForPharmacy(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Param("pharmacyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pharmacy ID"))
		return
	}

	filters := &model.OrderFilters{
		Status: model.OrderStatus(c.Query("status")),
	}
	filters.Page = handler.IntQuery(c, "page")
	filters.PageSize = handler.IntQuery(c, "page_size")

	actor := middleware.GetActor(c)
	orders, err := h.service.ListForPharmacy(c.Request.Context(), *actor, pharmacyID, filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	order, err := h.service.Transition(c.Request.Context(), *actor, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(order))
}
