package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/cart"
	"github.com/pharmalink/marketplace-api/internal/service/checkout"
)

type Handler struct {
	service     *cart.Service
	checkoutSvc *checkout.Service
}

func NewHandler(service *cart.Service, checkoutSvc *checkout.Service) *Handler {
	return &Handler{service: service, checkoutSvc: checkoutSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	cartGroup := r.Group("/cart", auth.RequireRole(model.RolePatient))
	{
		cartGroup.GET("", h.Get)
		cartGroup.POST("/items", h.AddItem)
		cartGroup.PUT("/items/:medicationId", h.UpdateItem)
		cartGroup.DELETE("/items/:medicationId", h.RemoveItem)
		cartGroup.DELETE("", h.Clear)
		cartGroup.POST("/checkout", h.Checkout)
	}
}

func (h *Handler) Get(c *gin.Context) {
	actor := middleware.GetActor(c)
	cart, err := h.service.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cart))
}

func (h *Handler) AddItem(c *gin.Context) {
	var req model.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	cart, err := h.service.AddItem(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cart))
}

func (h *Handler) UpdateItem(c *gin.Context) {
	medicationID, err := uuid.Parse(c.Param("medicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	var req model.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	cart, err := h.service.UpdateItem(c.Request.Context(), actor.UserID, medicationID, req.Quantity)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cart))
}

func (h *Handler) RemoveItem(c *gin.Context) {
	medicationID, err := uuid.Parse(c.Param("medicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	actor := middleware.GetActor(c)
	cart, err := h.service.RemoveItem(c.Request.Context(), actor.UserID, medicationID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cart))
}

func (h *Handler) Clear(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := h.service.Clear(c.Request.Context(), actor.UserID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"cleared": true}))
}

func (h *Handler) Checkout(c *gin.Context) {
	var req model.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	result, err := h.checkoutSvc.Checkout(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}
