package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/shop/service"
)

// InventoryHandler 库存台账与套件组装
type InventoryHandler struct {
	inventory *service.InventoryService
	assembly  *service.AssemblyService
}

func NewInventoryHandler(inventory *service.InventoryService, assembly *service.AssemblyService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, assembly: assembly}
}

// Get GET /inventory/:item_id
func (h *InventoryHandler) Get(c *gin.Context) {
	inv, err := h.inventory.Get(c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, inv)
}

// Adjust POST /inventory/:item_id/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if req.PerformedBy == "" {
		req.PerformedBy = currentUserID(c)
	}
	inv, err := h.inventory.Adjust(c.Param("item_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, inv)
}

// Transactions GET /inventory/:item_id/transactions
func (h *InventoryHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.inventory.TransactionHistory(c.Param("item_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, txs)
}

// ReorderList GET /inventory/reorder
func (h *InventoryHandler) ReorderList(c *gin.Context) {
	items, err := h.inventory.ItemsBelowReorderPoint()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

type assembleRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// CanAssemble GET /kits/:id/can-assemble?quantity=N
func (h *InventoryHandler) CanAssemble(c *gin.Context) {
	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "quantity must be an integer"})
		return
	}
	ok, shortages, err := h.assembly.CanAssemble(c.Param("id"), quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"can_assemble": ok, "shortages": shortages})
}

// Assemble POST /kits/:id/assemble
func (h *InventoryHandler) Assemble(c *gin.Context) {
	var req assembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err := h.assembly.Assemble(c.Param("id"), req.Quantity, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
