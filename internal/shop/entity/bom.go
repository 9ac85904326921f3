package entity

import (
	"time"
)

// BOMLine 物料清单边：父商品（套件）→ 组件商品，允许小数用量
type BOMLine struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	ParentItemID     string    `json:"parent_item_id" gorm:"size:36;not null;index:idx_bom_parent_component,unique"`
	ComponentItemID  string    `json:"component_item_id" gorm:"size:36;not null;index:idx_bom_parent_component,unique"`
	QuantityRequired float64   `json:"quantity_required" gorm:"type:decimal(12,4);not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	ParentItem    *Item `json:"parent_item,omitempty" gorm:"foreignKey:ParentItemID"`
	ComponentItem *Item `json:"component_item,omitempty" gorm:"foreignKey:ComponentItemID"`
}

func (BOMLine) TableName() string {
	return "bill_of_materials"
}

// BOMComponentDetail 带实时成本的 BOM 行视图（只读）
type BOMComponentDetail struct {
	ComponentID      string  `json:"component_id"`
	SKU              string  `json:"sku"`
	Title            string  `json:"title"`
	QuantityRequired float64 `json:"quantity_required"`
	UnitCost         float64 `json:"unit_cost"`
	ExtendedCost     float64 `json:"extended_cost"`
}
