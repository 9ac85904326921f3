package repository

import (
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *ItemRepository) WithTx(tx *gorm.DB) *ItemRepository {
	return &ItemRepository{db: tx}
}

func (r *ItemRepository) Create(item *entity.Item) error {
	return r.db.Create(item).Error
}

func (r *ItemRepository) Update(item *entity.Item) error {
	return r.db.Save(item).Error
}

func (r *ItemRepository) GetByID(id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) GetBySKU(sku string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("sku = ?", sku).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) ExistsBySKU(sku string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Item{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

type ItemListParams struct {
	Category   string
	ActiveOnly bool
}

func (r *ItemRepository) List(params ItemListParams) ([]entity.Item, error) {
	query := r.db.Model(&entity.Item{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	var items []entity.Item
	err := query.Order("sku").Find(&items).Error
	return items, err
}

// ListWithInventory 商品 × 库存联合视图（只读 API 与导出用）
func (r *ItemRepository) ListWithInventory(params ItemListParams) ([]entity.Item, error) {
	query := r.db.Model(&entity.Item{}).Preload("Inventory")
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	var items []entity.Item
	err := query.Order("sku").Find(&items).Error
	return items, err
}
