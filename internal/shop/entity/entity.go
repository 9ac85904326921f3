package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移全部核心表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 商品与 BOM
		&Item{},
		&BOMLine{},

		// 库存
		&Inventory{},
		&InventoryTransaction{},

		// 采购
		&InboundOrder{},
		&InboundOrderItem{},

		// 销售
		&SalesOrder{},
		&SalesOrderItem{},
	)
}
