package entity

import (
	"time"
)

// SalesOrderStatus 销售订单状态：pending → packed → shipped，
// pending|packed → cancelled；packed 可经 unpack 回到 pending。
// delivered 仅作展示标签，核心状态机不主动置为该值。
const (
	OrderStatusPending   = "pending"
	OrderStatusPacked    = "packed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// SalesOrder 销售订单（本地或从平台同步）
type SalesOrder struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	ExternalOrderID  string     `json:"external_order_id" gorm:"size:64;uniqueIndex"`
	BuyerName        string     `json:"buyer_name" gorm:"size:128"`
	BuyerEmail       string     `json:"buyer_email" gorm:"size:128"`
	ShippingAddress  string     `json:"shipping_address" gorm:"size:512"`
	TotalAmount      float64    `json:"total_amount" gorm:"type:decimal(12,2);default:0"`
	OrderDate        *time.Time `json:"order_date"`
	Status           string     `json:"status" gorm:"size:20;not null;default:pending"`
	Packed           bool       `json:"packed" gorm:"not null;default:false"`
	TrackingNumber   string     `json:"tracking_number" gorm:"size:100"`
	Carrier          string     `json:"carrier" gorm:"size:50"`
	InvoiceGenerated bool       `json:"invoice_generated" gorm:"not null;default:false"`
	LabelGenerated   bool       `json:"label_generated" gorm:"not null;default:false"`
	Notes            string     `json:"notes" gorm:"type:text"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Items []SalesOrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (SalesOrder) TableName() string {
	return "orders"
}

// SalesOrderItem 订单行，下单时的 SKU/标题/价格快照，不回链商品主数据
type SalesOrderItem struct {
	ID                   string    `json:"id" gorm:"primaryKey;size:36"`
	OrderID              string    `json:"order_id" gorm:"size:36;not null;index"`
	MarketplaceListingID string    `json:"marketplace_listing_id" gorm:"size:64"`
	SKU                  string    `json:"sku" gorm:"size:64"`
	Title                string    `json:"title" gorm:"size:256"`
	Quantity             float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Price                float64   `json:"price" gorm:"type:decimal(12,2);default:0"`
	CreatedAt            time.Time `json:"created_at"`
}

func (SalesOrderItem) TableName() string {
	return "order_items"
}
