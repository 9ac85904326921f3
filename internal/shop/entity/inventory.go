package entity

import (
	"time"
)

// TransactionType 库存交易类型
const (
	TxTypeInbound     = "inbound"      // 采购收货入库
	TxTypeSale        = "sale"         // 订单打包出库
	TxTypeAdjustment  = "adjustment"   // 人工调整 / 打包回退
	TxTypeKitAssembly = "kit_assembly" // 套件组装
)

// ReferenceType 交易引用类型
const (
	RefTypeAdjustment   = "adjustment"
	RefTypeKit          = "kit"
	RefTypeInboundOrder = "inbound_order"
	RefTypeOrder        = "order"
	RefTypeOrderUnpack  = "order_unpack"
	RefTypeOrderCancel  = "order_cancel"
)

// Inventory 库存记录，与 Item 一对一，随商品创建
// quantity_available 恒等于 on_hand - reserved，每次变更后重算
type Inventory struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	ItemID            string    `json:"item_id" gorm:"size:36;not null;uniqueIndex"`
	QuantityOnHand    float64   `json:"quantity_on_hand" gorm:"type:decimal(12,4);not null;default:0"`
	QuantityReserved  float64   `json:"quantity_reserved" gorm:"type:decimal(12,4);not null;default:0"`
	QuantityAvailable float64   `json:"quantity_available" gorm:"type:decimal(12,4);not null;default:0"`
	LastUpdated       time.Time `json:"last_updated"`
	CreatedAt         time.Time `json:"created_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (Inventory) TableName() string {
	return "inventory"
}

// RecalculateAvailable 重算可用数量
func (inv *Inventory) RecalculateAvailable() {
	inv.QuantityAvailable = inv.QuantityOnHand - inv.QuantityReserved
}

// InventoryTransaction 库存流水，只追加不修改
// 某商品全部流水之和等于其当前 on_hand（商品创建时为 0）
type InventoryTransaction struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	ItemID          string    `json:"item_id" gorm:"size:36;not null;index"`
	TransactionType string    `json:"transaction_type" gorm:"size:20;not null"`
	Quantity        float64   `json:"quantity" gorm:"type:decimal(12,4);not null"` // 正=入，负=出
	ReferenceType   string    `json:"reference_type" gorm:"size:32;not null"`
	ReferenceID     string    `json:"reference_id" gorm:"size:64"`
	Notes           string    `json:"notes" gorm:"type:text"`
	PerformedBy     string    `json:"performed_by" gorm:"size:64"`
	CreatedAt       time.Time `json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// ReorderItem 低于补货点的商品视图（含采购所需的供应商信息）
type ReorderItem struct {
	ItemID            string  `json:"item_id"`
	SKU               string  `json:"sku"`
	Title             string  `json:"title"`
	QuantityAvailable float64 `json:"quantity_available"`
	ReorderPoint      float64 `json:"reorder_point"`
	ReorderQuantity   float64 `json:"reorder_quantity"`
	SupplierName      string  `json:"supplier_name"`
	SupplierURL       string  `json:"supplier_url"`
}
