package repository

import (
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"gorm.io/gorm"
)

type InboundRepository struct {
	db *gorm.DB
}

func NewInboundRepository(db *gorm.DB) *InboundRepository {
	return &InboundRepository{db: db}
}

func (r *InboundRepository) WithTx(tx *gorm.DB) *InboundRepository {
	return &InboundRepository{db: tx}
}

func (r *InboundRepository) Create(order *entity.InboundOrder) error {
	return r.db.Create(order).Error
}

func (r *InboundRepository) Update(order *entity.InboundOrder) error {
	return r.db.Save(order).Error
}

func (r *InboundRepository) UpdateItem(item *entity.InboundOrderItem) error {
	return r.db.Save(item).Error
}

func (r *InboundRepository) GetByID(id string) (*entity.InboundOrder, error) {
	var order entity.InboundOrder
	err := r.db.Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *InboundRepository) GetByPONumber(poNumber string) (*entity.InboundOrder, error) {
	var order entity.InboundOrder
	err := r.db.Preload("Items").Where("po_number = ?", poNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LastPONumber 现存最大的 PO 号（零填充六位数字，字典序即数值序）
func (r *InboundRepository) LastPONumber() (string, error) {
	var result struct{ PONumber string }
	err := r.db.Raw(`
		SELECT po_number FROM inbound_orders
		WHERE po_number LIKE 'PO%'
		ORDER BY po_number DESC
		LIMIT 1
	`).Scan(&result).Error
	return result.PONumber, err
}

func (r *InboundRepository) List(status string) ([]entity.InboundOrder, error) {
	query := r.db.Preload("Items")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var orders []entity.InboundOrder
	err := query.Order("order_date DESC").Find(&orders).Error
	return orders, err
}

// ListPending 未收齐的采购单，按预计到货日排序
func (r *InboundRepository) ListPending() ([]entity.InboundOrder, error) {
	var orders []entity.InboundOrder
	err := r.db.Preload("Items").
		Where("status IN ?", []string{entity.InboundStatusOrdered, entity.InboundStatusInTransit}).
		Order("expected_date").
		Find(&orders).Error
	return orders, err
}

func (r *InboundRepository) ReplaceItems(orderID string, items []entity.InboundOrderItem) error {
	if err := r.db.Where("inbound_order_id = ?", orderID).
		Delete(&entity.InboundOrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// GetItemDetails 采购单行与商品主数据的联合明细
func (r *InboundRepository) GetItemDetails(orderID string) ([]entity.InboundOrderItemDetail, error) {
	var details []entity.InboundOrderItemDetail
	err := r.db.Raw(`
		SELECT oi.id AS order_item_id, m.id AS item_id, m.sku, m.title,
		       oi.quantity_ordered, oi.quantity_received,
		       oi.quantity_ordered - oi.quantity_received AS quantity_remaining,
		       oi.unit_cost,
		       oi.quantity_ordered * oi.unit_cost AS extended_cost
		FROM inbound_order_items oi
		JOIN item_master m ON m.id = oi.item_id
		WHERE oi.inbound_order_id = ?
		ORDER BY oi.created_at
	`, orderID).Scan(&details).Error
	return details, err
}
