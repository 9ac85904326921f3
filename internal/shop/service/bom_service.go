package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"gorm.io/gorm"
)

// BOMService 物料清单管理与套件成本汇总。
// BOM 图必须保持无环：写入任何一条边之前先做可达性检查。
type BOMService struct {
	itemRepo *repository.ItemRepository
	bomRepo  *repository.BOMRepository
	catalog  *CatalogService
	db       *gorm.DB
}

func NewBOMService(itemRepo *repository.ItemRepository, bomRepo *repository.BOMRepository, catalog *CatalogService, db *gorm.DB) *BOMService {
	return &BOMService{itemRepo: itemRepo, bomRepo: bomRepo, catalog: catalog, db: db}
}

type BOMLineRequest struct {
	ComponentItemID  string  `json:"component_item_id" binding:"required"`
	QuantityRequired float64 `json:"quantity_required" binding:"required,gt=0"`
}

type CreateKitRequest struct {
	Item       CreateItemRequest `json:"item"`
	Components []BOMLineRequest  `json:"components" binding:"required,min=1"`
}

// CreateKit 创建套件商品并写入 BOM，随后算出汇总成本。
// 组件先行校验，校验不过不会留下没有 BOM 的孤儿套件。
func (s *BOMService) CreateKit(req CreateKitRequest) (*entity.Item, error) {
	if len(req.Components) == 0 {
		return nil, &ValidationError{Field: "components", Message: "至少需要一行"}
	}
	seen := make(map[string]bool, len(req.Components))
	for _, line := range req.Components {
		if line.QuantityRequired <= 0 {
			return nil, &ValidationError{Field: "quantity_required", Message: "必须大于 0", Value: line.QuantityRequired}
		}
		if seen[line.ComponentItemID] {
			return nil, &ValidationError{Field: "component_item_id", Message: "组件重复", Value: line.ComponentItemID}
		}
		seen[line.ComponentItemID] = true
		if _, err := s.itemRepo.GetByID(line.ComponentItemID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: 组件 %s", ErrNotFound, line.ComponentItemID)
			}
			return nil, err
		}
	}

	req.Item.Category = entity.CategoryKit
	item, err := s.catalog.Create(req.Item)
	if err != nil {
		return nil, err
	}
	if err := s.ReplaceLines(item.ID, req.Components); err != nil {
		return nil, err
	}
	return s.itemRepo.GetByID(item.ID)
}

// ReplaceLines 整体替换套件 BOM 行并重算成本链
func (s *BOMService) ReplaceLines(parentItemID string, lines []BOMLineRequest) error {
	parent, err := s.itemRepo.GetByID(parentItemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: 商品 %s", ErrNotFound, parentItemID)
		}
		return err
	}
	if !parent.IsKit {
		return fmt.Errorf("%w: %s 不是套件", ErrInvalidState, parent.SKU)
	}

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.QuantityRequired <= 0 {
			return &ValidationError{Field: "quantity_required", Message: "必须大于 0", Value: line.QuantityRequired}
		}
		if line.ComponentItemID == parentItemID {
			return &ValidationError{Field: "component_item_id", Message: "组件不能引用自身", Value: line.ComponentItemID}
		}
		if seen[line.ComponentItemID] {
			return &ValidationError{Field: "component_item_id", Message: "组件重复", Value: line.ComponentItemID}
		}
		seen[line.ComponentItemID] = true

		if _, err := s.itemRepo.GetByID(line.ComponentItemID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: 组件 %s", ErrNotFound, line.ComponentItemID)
			}
			return err
		}
		cyclic, err := s.wouldCreateCycle(parentItemID, line.ComponentItemID)
		if err != nil {
			return err
		}
		if cyclic {
			return &ValidationError{Field: "component_item_id", Message: "会造成 BOM 环", Value: line.ComponentItemID}
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		bomTx := s.bomRepo.WithTx(tx)
		if err := bomTx.DeleteByParent(parentItemID); err != nil {
			return fmt.Errorf("清空BOM失败: %w", err)
		}
		rows := make([]entity.BOMLine, 0, len(lines))
		for _, line := range lines {
			rows = append(rows, entity.BOMLine{
				ID:               uuid.New().String(),
				ParentItemID:     parentItemID,
				ComponentItemID:  line.ComponentItemID,
				QuantityRequired: line.QuantityRequired,
			})
		}
		if err := bomTx.CreateLines(rows); err != nil {
			return fmt.Errorf("写入BOM失败: %w", err)
		}
		return s.recalculateCostTx(tx, parentItemID, make(map[string]bool))
	})
}

// wouldCreateCycle 判断 parent→component 这条边是否使图有环：
// 沿 component 的 BOM 向下走，能回到 parent 即成环
func (s *BOMService) wouldCreateCycle(parentID, componentID string) (bool, error) {
	visited := make(map[string]bool)
	stack := []string{componentID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == parentID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		lines, err := s.bomRepo.GetByParent(current)
		if err != nil {
			return false, fmt.Errorf("查询BOM失败: %w", err)
		}
		for _, line := range lines {
			stack = append(stack, line.ComponentItemID)
		}
	}
	return false, nil
}

// GetComponents 套件 BOM 明细（带实时成本）
func (s *BOMService) GetComponents(parentItemID string) ([]entity.BOMComponentDetail, error) {
	if _, err := s.itemRepo.GetByID(parentItemID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 商品 %s", ErrNotFound, parentItemID)
		}
		return nil, err
	}
	lines, err := s.bomRepo.GetByParent(parentItemID)
	if err != nil {
		return nil, err
	}
	details := make([]entity.BOMComponentDetail, 0, len(lines))
	for _, line := range lines {
		d := entity.BOMComponentDetail{
			ComponentID:      line.ComponentItemID,
			QuantityRequired: line.QuantityRequired,
		}
		if line.ComponentItem != nil {
			d.SKU = line.ComponentItem.SKU
			d.Title = line.ComponentItem.Title
			d.UnitCost = line.ComponentItem.UnitCost()
		}
		d.ExtendedCost = d.UnitCost * line.QuantityRequired
		details = append(details, d)
	}
	return details, nil
}

// RecalculateCost 重算套件成本并沿父链向上传播
func (s *BOMService) RecalculateCost(itemID string) (float64, error) {
	var cost float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.recalculateCostTx(tx, itemID, make(map[string]bool)); err != nil {
			return err
		}
		item, err := s.itemRepo.WithTx(tx).GetByID(itemID)
		if err != nil {
			return err
		}
		cost = item.CalculatedCost
		return nil
	})
	return cost, err
}

// recalculateCostTx 在事务内重算一个商品的汇总成本，并递归刷新引用它的父套件。
// visited 防御数据层面已存在的环，保证终止。
func (s *BOMService) recalculateCostTx(tx *gorm.DB, itemID string, visited map[string]bool) error {
	if visited[itemID] {
		return nil
	}
	visited[itemID] = true

	itemTx := s.itemRepo.WithTx(tx)
	bomTx := s.bomRepo.WithTx(tx)

	item, err := itemTx.GetByID(itemID)
	if err != nil {
		return err
	}
	lines, err := bomTx.GetByParent(itemID)
	if err != nil {
		return err
	}
	var total float64
	for _, line := range lines {
		if line.ComponentItem == nil {
			continue
		}
		total += line.ComponentItem.UnitCost() * line.QuantityRequired
	}
	item.CalculatedCost = total
	if err := itemTx.Update(item); err != nil {
		return fmt.Errorf("更新成本失败: %w", err)
	}

	parentIDs, err := bomTx.GetParentIDs(itemID)
	if err != nil {
		return err
	}
	for _, pid := range parentIDs {
		if err := s.recalculateCostTx(tx, pid, visited); err != nil {
			return err
		}
	}
	return nil
}
