package repository

import (
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

func (r *InventoryRepository) Create(inv *entity.Inventory) error {
	return r.db.Create(inv).Error
}

func (r *InventoryRepository) GetByItem(itemID string) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := r.db.Where("item_id = ?", itemID).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByItemForUpdate 加行锁读取库存，多行变更期间防止并发检查竞态。
// sqlite 不支持 FOR UPDATE，写事务本身就是全库串行的，直接普通读。
func (r *InventoryRepository) GetByItemForUpdate(itemID string) (*entity.Inventory, error) {
	query := r.db
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var inv entity.Inventory
	err := query.Where("item_id = ?", itemID).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InventoryRepository) Update(inv *entity.Inventory) error {
	return r.db.Save(inv).Error
}

func (r *InventoryRepository) CreateTransaction(tx *entity.InventoryTransaction) error {
	return r.db.Create(tx).Error
}

// ListTransactions 倒序流水，limit<=0 时取默认 50 条
func (r *InventoryRepository) ListTransactions(itemID string, limit int) ([]entity.InventoryTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txs []entity.InventoryTransaction
	err := r.db.Where("item_id = ?", itemID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// ListTransactionsByReference 某业务单据名下的全部流水，按发生顺序
func (r *InventoryRepository) ListTransactionsByReference(referenceID string) ([]entity.InventoryTransaction, error) {
	var txs []entity.InventoryTransaction
	err := r.db.Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

// SumTransactions 某商品全部流水之和（对账校验用）
func (r *InventoryRepository) SumTransactions(itemID string) (float64, error) {
	var result struct{ Total float64 }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(quantity), 0) as total
		FROM inventory_transactions
		WHERE item_id = ?
	`, itemID).Scan(&result).Error
	return result.Total, err
}

// ListBelowReorderPoint 可用量不高于补货点的在售可追踪商品
func (r *InventoryRepository) ListBelowReorderPoint() ([]entity.ReorderItem, error) {
	var items []entity.ReorderItem
	err := r.db.Raw(`
		SELECT m.id AS item_id, m.sku, m.title,
		       i.quantity_available, m.reorder_point, m.reorder_quantity,
		       m.supplier_name, m.supplier_url
		FROM item_master m
		JOIN inventory i ON i.item_id = m.id
		WHERE m.is_active = ? AND m.track_inventory = ?
		  AND i.quantity_available <= m.reorder_point
		ORDER BY m.sku
	`, true, true).Scan(&items).Error
	return items, err
}

// DB 返回底层db用于事务
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}
