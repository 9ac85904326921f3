package repository

import (
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

func (r *BOMRepository) WithTx(tx *gorm.DB) *BOMRepository {
	return &BOMRepository{db: tx}
}

// GetByParent 获取套件的全部 BOM 行（带组件主数据）
func (r *BOMRepository) GetByParent(parentItemID string) ([]entity.BOMLine, error) {
	var lines []entity.BOMLine
	err := r.db.Preload("ComponentItem").
		Where("parent_item_id = ?", parentItemID).
		Order("created_at").
		Find(&lines).Error
	return lines, err
}

// GetParentIDs 反向查询：引用了该组件的所有父商品 ID（环检测用）
func (r *BOMRepository) GetParentIDs(componentItemID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.BOMLine{}).
		Where("component_item_id = ?", componentItemID).
		Pluck("parent_item_id", &ids).Error
	return ids, err
}

func (r *BOMRepository) CreateLines(lines []entity.BOMLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

func (r *BOMRepository) DeleteByParent(parentItemID string) error {
	return r.db.Where("parent_item_id = ?", parentItemID).
		Delete(&entity.BOMLine{}).Error
}
