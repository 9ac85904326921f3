package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/config"
	"github.com/victorydiv/etsyapp/internal/marketplace"
	"github.com/victorydiv/etsyapp/internal/shop/service"
	"gorm.io/gorm"
)

// Handlers HTTP处理器集合
type Handlers struct {
	Auth      *AuthHandler
	Item      *ItemHandler
	Inventory *InventoryHandler
	Inbound   *InboundHandler
	Order     *OrderHandler
	Report    *ReportHandler
	Sync      *SyncHandler
}

func NewHandlers(services *service.Services, syncer *marketplace.Syncer, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(cfg.JWT),
		Item:      NewItemHandler(services.Catalog, services.BOM),
		Inventory: NewInventoryHandler(services.Inventory, services.Assembly),
		Inbound:   NewInboundHandler(services.Inbound),
		Order:     NewOrderHandler(services.Fulfillment),
		Report:    NewReportHandler(services.Report),
		Sync:      NewSyncHandler(syncer),
	}
}

// respondError 把业务错误映射为 HTTP 状态码与响应体
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var shortErr *service.InsufficientInventoryError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    10001,
			"message": validationErr.Error(),
			"data":    validationErr,
		})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrDuplicateSKU):
		c.JSON(http.StatusConflict, gin.H{"code": 10003, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"code": 10004, "message": err.Error()})
	case errors.As(err, &shortErr):
		c.JSON(http.StatusConflict, gin.H{
			"code":    10005,
			"message": shortErr.Error(),
			"data":    gin.H{"lines": shortErr.Lines},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func respondOK(c *gin.Context, data any) {
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func currentUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if s, ok := userID.(string); ok {
			return s
		}
	}
	return ""
}
