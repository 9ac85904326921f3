package entity

import (
	"time"
)

// InboundOrderStatus 采购单状态机：ordered → in_transit → received（终态），
// ordered|in_transit → cancelled（终态）
const (
	InboundStatusOrdered   = "ordered"
	InboundStatusInTransit = "in_transit"
	InboundStatusReceived  = "received"
	InboundStatusCancelled = "cancelled"
)

// InboundOrder 采购单（PO），total_cost 始终由 subtotal+shipping+tax 推导
type InboundOrder struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	PONumber       string     `json:"po_number" gorm:"size:20;not null;uniqueIndex"`
	SupplierName   string     `json:"supplier_name" gorm:"size:128;not null"`
	Status         string     `json:"status" gorm:"size:20;not null;default:ordered"`
	OrderDate      time.Time  `json:"order_date"`
	ExpectedDate   *time.Time `json:"expected_date"`
	ReceivedDate   *time.Time `json:"received_date"`
	Subtotal       float64    `json:"subtotal" gorm:"type:decimal(12,2);default:0"`
	ShippingCost   float64    `json:"shipping_cost" gorm:"type:decimal(12,2);default:0"`
	Tax            float64    `json:"tax" gorm:"type:decimal(12,2);default:0"`
	TotalCost      float64    `json:"total_cost" gorm:"type:decimal(12,2);default:0"`
	TrackingNumber string     `json:"tracking_number" gorm:"size:100"`
	Carrier        string     `json:"carrier" gorm:"size:50"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Items []InboundOrderItem `json:"items,omitempty" gorm:"foreignKey:InboundOrderID"`
}

func (InboundOrder) TableName() string {
	return "inbound_orders"
}

// IsTerminal 终态不再允许任何状态转移
func (o *InboundOrder) IsTerminal() bool {
	return o.Status == InboundStatusReceived || o.Status == InboundStatusCancelled
}

// RecalculateTotals 按行重算 subtotal 与 total_cost
func (o *InboundOrder) RecalculateTotals() {
	var subtotal float64
	for _, item := range o.Items {
		subtotal += item.QuantityOrdered * item.UnitCost
	}
	o.Subtotal = subtotal
	o.TotalCost = subtotal + o.ShippingCost + o.Tax
}

// InboundOrderItem 采购单明细行，quantity_received 只增不减
type InboundOrderItem struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	InboundOrderID   string    `json:"inbound_order_id" gorm:"size:36;not null;index"`
	ItemID           string    `json:"item_id" gorm:"size:36;not null;index"`
	QuantityOrdered  float64   `json:"quantity_ordered" gorm:"type:decimal(12,4);not null"`
	QuantityReceived float64   `json:"quantity_received" gorm:"type:decimal(12,4);not null;default:0"`
	UnitCost         float64   `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (InboundOrderItem) TableName() string {
	return "inbound_order_items"
}

// Remaining 尚未收货数量
func (i *InboundOrderItem) Remaining() float64 {
	remaining := i.QuantityOrdered - i.QuantityReceived
	if remaining < 0 {
		return 0
	}
	return remaining
}

// InboundOrderItemDetail 采购单行与商品主数据的联合视图
type InboundOrderItemDetail struct {
	OrderItemID       string  `json:"order_item_id"`
	ItemID            string  `json:"item_id"`
	SKU               string  `json:"sku"`
	Title             string  `json:"title"`
	QuantityOrdered   float64 `json:"quantity_ordered"`
	QuantityReceived  float64 `json:"quantity_received"`
	QuantityRemaining float64 `json:"quantity_remaining"`
	UnitCost          float64 `json:"unit_cost"`
	ExtendedCost      float64 `json:"extended_cost"`
}
