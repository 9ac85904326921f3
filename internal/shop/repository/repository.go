package repository

import "gorm.io/gorm"

// Repositories 核心仓库集合
type Repositories struct {
	Item      *ItemRepository
	BOM       *BOMRepository
	Inventory *InventoryRepository
	Inbound   *InboundRepository
	Sales     *SalesRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:      NewItemRepository(db),
		BOM:       NewBOMRepository(db),
		Inventory: NewInventoryRepository(db),
		Inbound:   NewInboundRepository(db),
		Sales:     NewSalesRepository(db),
	}
}
