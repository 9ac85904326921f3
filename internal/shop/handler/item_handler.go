package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"github.com/victorydiv/etsyapp/internal/shop/service"
)

// ItemHandler 商品主数据与 BOM
type ItemHandler struct {
	catalog *service.CatalogService
	bom     *service.BOMService
}

func NewItemHandler(catalog *service.CatalogService, bom *service.BOMService) *ItemHandler {
	return &ItemHandler{catalog: catalog, bom: bom}
}

// List GET /items
func (h *ItemHandler) List(c *gin.Context) {
	params := repository.ItemListParams{
		Category:   c.Query("category"),
		ActiveOnly: c.DefaultQuery("active_only", "true") == "true",
	}
	var err error
	var items any
	if c.Query("with_inventory") == "true" {
		items, err = h.catalog.ListWithInventory(params)
	} else {
		items, err = h.catalog.List(params)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// Get GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// GetBySKU GET /items/sku/:sku
func (h *ItemHandler) GetBySKU(c *gin.Context) {
	item, err := h.catalog.GetBySKU(c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// Create POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.catalog.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// Update PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.catalog.Update(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// Deactivate DELETE /items/:id
func (h *ItemHandler) Deactivate(c *gin.Context) {
	if err := h.catalog.Deactivate(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// CreateKit POST /kits
func (h *ItemHandler) CreateKit(c *gin.Context) {
	var req service.CreateKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.bom.CreateKit(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// GetBOM GET /items/:id/bom
func (h *ItemHandler) GetBOM(c *gin.Context) {
	components, err := h.bom.GetComponents(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, components)
}

// ReplaceBOM PUT /items/:id/bom
func (h *ItemHandler) ReplaceBOM(c *gin.Context) {
	var req struct {
		Components []service.BOMLineRequest `json:"components" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err := h.bom.ReplaceLines(c.Param("id"), req.Components); err != nil {
		respondError(c, err)
		return
	}
	components, err := h.bom.GetComponents(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, components)
}

// RecalculateCost POST /items/:id/recalculate-cost
func (h *ItemHandler) RecalculateCost(c *gin.Context) {
	cost, err := h.bom.RecalculateCost(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"calculated_cost": cost})
}
