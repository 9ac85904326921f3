package entity

import (
	"time"
)

// ItemCategory 商品类目
const (
	CategoryRawMaterial  = "raw_material"
	CategoryComponent    = "component"
	CategoryFinishedGood = "finished_good"
	CategoryKit          = "kit"
)

// Item 商品主数据（SKU 为不可变业务标识）
type Item struct {
	ID                   string     `json:"id" gorm:"primaryKey;size:36"`
	SKU                  string     `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	MarketplaceListingID string     `json:"marketplace_listing_id" gorm:"size:64;index"`
	Title                string     `json:"title" gorm:"size:256;not null"`
	Category             string     `json:"category" gorm:"size:20;not null;default:finished_good"`
	IsKit                bool       `json:"is_kit" gorm:"not null;default:false"`
	BaseCost             float64    `json:"base_cost" gorm:"type:decimal(12,4);default:0"`
	CalculatedCost       float64    `json:"calculated_cost" gorm:"type:decimal(12,4);default:0"`
	SellPrice            float64    `json:"sell_price" gorm:"type:decimal(12,2);default:0"`
	ReorderPoint         float64    `json:"reorder_point" gorm:"type:decimal(12,4);default:0"`
	ReorderQuantity      float64    `json:"reorder_quantity" gorm:"type:decimal(12,4);default:0"`
	TrackInventory       bool       `json:"track_inventory" gorm:"not null;default:true"`
	SupplierName         string     `json:"supplier_name" gorm:"size:128"`
	SupplierURL          string     `json:"supplier_url" gorm:"size:512"`
	StorageLocation      string     `json:"storage_location" gorm:"size:128"`
	IsActive             bool       `json:"is_active" gorm:"not null;default:true"`
	LastSynced           *time.Time `json:"last_synced"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Inventory *Inventory `json:"inventory,omitempty" gorm:"foreignKey:ItemID"`
	BOMLines  []BOMLine  `json:"bom_lines,omitempty" gorm:"foreignKey:ParentItemID"`
}

func (Item) TableName() string {
	return "item_master"
}

// UnitCost 返回用于成本累计的单位成本：套件取 BOM 汇总成本，其余取直接成本
func (i *Item) UnitCost() float64 {
	if i.IsKit {
		return i.CalculatedCost
	}
	if i.BaseCost != 0 {
		return i.BaseCost
	}
	return i.CalculatedCost
}
