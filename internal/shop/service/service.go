package service

import (
	"context"

	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventPublisher 状态变更后的异步通知出口。
// 发布失败只记日志，绝不回滚已提交的业务事务。
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any)
}

// Services 业务服务集合
type Services struct {
	Catalog     *CatalogService
	BOM         *BOMService
	Inventory   *InventoryService
	Assembly    *AssemblyService
	Inbound     *InboundService
	Fulfillment *FulfillmentService
	Report      *ReportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, events EventPublisher, logger *zap.Logger) *Services {
	catalog := NewCatalogService(repos.Item, repos.Inventory, db)
	inventory := NewInventoryService(repos.Item, repos.Inventory, db, events, logger)
	return &Services{
		Catalog:     catalog,
		BOM:         NewBOMService(repos.Item, repos.BOM, catalog, db),
		Inventory:   inventory,
		Assembly:    NewAssemblyService(repos.Item, repos.BOM, repos.Inventory, db, events, logger),
		Inbound:     NewInboundService(repos.Item, repos.Inbound, repos.Inventory, db, events, logger),
		Fulfillment: NewFulfillmentService(repos.Item, repos.Sales, repos.Inventory, db, events, logger),
		Report:      NewReportService(repos.Item, repos.Inventory, repos.Inbound, repos.Sales),
	}
}
