package repository

import (
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"gorm.io/gorm"
)

type SalesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

func (r *SalesRepository) WithTx(tx *gorm.DB) *SalesRepository {
	return &SalesRepository{db: tx}
}

func (r *SalesRepository) Create(order *entity.SalesOrder) error {
	return r.db.Create(order).Error
}

func (r *SalesRepository) Update(order *entity.SalesOrder) error {
	return r.db.Save(order).Error
}

func (r *SalesRepository) GetByID(id string) (*entity.SalesOrder, error) {
	var order entity.SalesOrder
	err := r.db.Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *SalesRepository) GetByExternalID(externalID string) (*entity.SalesOrder, error) {
	var order entity.SalesOrder
	err := r.db.Preload("Items").Where("external_order_id = ?", externalID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *SalesRepository) List(status string) ([]entity.SalesOrder, error) {
	query := r.db.Preload("Items")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var orders []entity.SalesOrder
	err := query.Order("order_date DESC").Find(&orders).Error
	return orders, err
}

func (r *SalesRepository) GetOrderItems(orderID string) ([]entity.SalesOrderItem, error) {
	var items []entity.SalesOrderItem
	err := r.db.Where("order_id = ?", orderID).Order("created_at").Find(&items).Error
	return items, err
}

func (r *SalesRepository) CreateItem(item *entity.SalesOrderItem) error {
	return r.db.Create(item).Error
}
