package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/shop/service"
)

// InboundHandler 采购单
type InboundHandler struct {
	svc *service.InboundService
}

func NewInboundHandler(svc *service.InboundService) *InboundHandler {
	return &InboundHandler{svc: svc}
}

// List GET /inbound-orders?status=
func (h *InboundHandler) List(c *gin.Context) {
	if c.Query("pending") == "true" {
		orders, err := h.svc.ListPending()
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, orders)
		return
	}
	orders, err := h.svc.List(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, orders)
}

// Get GET /inbound-orders/:id
func (h *InboundHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// GetByPONumber GET /inbound-orders/po/:po_number
func (h *InboundHandler) GetByPONumber(c *gin.Context) {
	order, err := h.svc.GetByPONumber(c.Param("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// GetItems GET /inbound-orders/:id/items
func (h *InboundHandler) GetItems(c *gin.Context) {
	details, err := h.svc.GetItemDetails(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, details)
}

// Create POST /inbound-orders
func (h *InboundHandler) Create(c *gin.Context) {
	var req service.CreateInboundRequest
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

// Update PUT /inbound-orders/:id
func (h *InboundHandler) Update(c *gin.Context) {
	var req service.UpdateInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// ReplaceItems PUT /inbound-orders/:id/items
func (h *InboundHandler) ReplaceItems(c *gin.Context) {
	var req struct {
		Items []service.InboundLineRequest `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, err := h.svc.ReplaceLines(c.Param("id"), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

type markInTransitRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// MarkInTransit POST /inbound-orders/:id/in-transit
func (h *InboundHandler) MarkInTransit(c *gin.Context) {
	var req markInTransitRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, err := h.svc.MarkInTransit(c.Param("id"), req.TrackingNumber, req.Carrier)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// Receive POST /inbound-orders/:id/receive
// 空请求体按整单收满处理
func (h *InboundHandler) Receive(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if req.PerformedBy == "" {
		req.PerformedBy = currentUserID(c)
	}
	order, err := h.svc.Receive(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// Cancel POST /inbound-orders/:id/cancel
func (h *InboundHandler) Cancel(c *gin.Context) {
	order, err := h.svc.Cancel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}
