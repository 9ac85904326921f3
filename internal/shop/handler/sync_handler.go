package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/marketplace"
)

// SyncHandler 手动触发平台同步
type SyncHandler struct {
	syncer *marketplace.Syncer
}

func NewSyncHandler(syncer *marketplace.Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

func (h *SyncHandler) ensureConfigured(c *gin.Context) bool {
	if h.syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    50301,
			"message": "marketplace sync is not configured",
		})
		return false
	}
	return true
}

// Listings POST /sync/listings
func (h *SyncHandler) Listings(c *gin.Context) {
	if !h.ensureConfigured(c) {
		return
	}
	result, err := h.syncer.SyncListings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Orders POST /sync/orders
func (h *SyncHandler) Orders(c *gin.Context) {
	if !h.ensureConfigured(c) {
		return
	}
	result, err := h.syncer.SyncOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// All POST /sync
func (h *SyncHandler) All(c *gin.Context) {
	if !h.ensureConfigured(c) {
		return
	}
	result, err := h.syncer.SyncAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
