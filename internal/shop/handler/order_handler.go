package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/shop/service"
)

// OrderHandler 销售订单履约
type OrderHandler struct {
	svc *service.FulfillmentService
}

func NewOrderHandler(svc *service.FulfillmentService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List GET /orders?status=
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.svc.List(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, orders)
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// GetItems GET /orders/:id/items
func (h *OrderHandler) GetItems(c *gin.Context) {
	items, err := h.svc.GetOrderItems(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// Create POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, err := h.svc.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// MarkPacked POST /orders/:id/pack
func (h *OrderHandler) MarkPacked(c *gin.Context) {
	order, err := h.svc.MarkPacked(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// Unpack POST /orders/:id/unpack
func (h *OrderHandler) Unpack(c *gin.Context) {
	order, err := h.svc.Unpack(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// Cancel POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.svc.Cancel(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Carrier        string `json:"carrier"`
}

// UpdateTracking POST /orders/:id/tracking
func (h *OrderHandler) UpdateTracking(c *gin.Context) {
	var req trackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, err := h.svc.UpdateTracking(c.Param("id"), req.TrackingNumber, req.Carrier)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}
