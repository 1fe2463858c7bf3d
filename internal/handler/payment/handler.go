package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/handler"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/service/payment"
)

type Handler struct {
	service *payment.Service
}

func NewHandler(service *payment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	payments := r.Group("/payments", auth.RequireRole(model.RolePatient))
	{
		payments.POST("/process", h.Process)
		payments.GET("", h.ListMine)
		payments.GET("/:id", h.Get)
	}
}

func (h *Handler) Process(c *gin.Context) {
	var req model.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.GetActor(c)
	payment, err := h.service.Process(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(payment))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid payment ID"))
		return
	}

	actor := middleware.GetActor(c)
	payment, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(payment))
}

func (h *Handler) ListMine(c *gin.Context) {
	actor := middleware.GetActor(c)
	payments, err := h.service.ListMine(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(payments))
}
