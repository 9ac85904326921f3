package service

import (
	"context"
	"fmt"

	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssemblyService 套件组装：按 BOM 扣减组件、入账套件成品。
// 检查与扣减在同一事务内完成，组件行全部加锁后才开始变更，
// 任何一个组件不足则整体回滚。
type AssemblyService struct {
	itemRepo *repository.ItemRepository
	bomRepo  *repository.BOMRepository
	invRepo  *repository.InventoryRepository
	db       *gorm.DB
	events   EventPublisher
	logger   *zap.Logger
}

func NewAssemblyService(itemRepo *repository.ItemRepository, bomRepo *repository.BOMRepository, invRepo *repository.InventoryRepository, db *gorm.DB, events EventPublisher, logger *zap.Logger) *AssemblyService {
	return &AssemblyService{itemRepo: itemRepo, bomRepo: bomRepo, invRepo: invRepo, db: db, events: events, logger: logger}
}

// componentNeed 一次组装对单个组件的需求量
type componentNeed struct {
	item     *entity.Item
	required float64
}

func (s *AssemblyService) loadNeeds(tx *gorm.DB, kitID string, quantity int) (*entity.Item, []componentNeed, error) {
	kit, err := s.itemRepo.WithTx(tx).GetByID(kitID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: 商品 %s", ErrNotFound, kitID)
		}
		return nil, nil, err
	}
	if !kit.IsKit {
		return nil, nil, fmt.Errorf("%w: %s 不是套件", ErrInvalidState, kit.SKU)
	}
	lines, err := s.bomRepo.WithTx(tx).GetByParent(kitID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: 套件 %s 没有 BOM", ErrInvalidState, kit.SKU)
	}
	needs := make([]componentNeed, 0, len(lines))
	for _, line := range lines {
		component := line.ComponentItem
		if component == nil {
			component, err = s.itemRepo.WithTx(tx).GetByID(line.ComponentItemID)
			if err != nil {
				return nil, nil, err
			}
		}
		if !component.TrackInventory {
			continue
		}
		needs = append(needs, componentNeed{
			item:     component,
			required: line.QuantityRequired * float64(quantity),
		})
	}
	return kit, needs, nil
}

// checkShortages 对每个组件加锁读库存，汇总所有缺口
func (s *AssemblyService) checkShortages(tx *gorm.DB, needs []componentNeed) ([]ShortLine, error) {
	var shortages []ShortLine
	for _, need := range needs {
		inv, err := s.invRepo.WithTx(tx).GetByItemForUpdate(need.item.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: 库存记录 %s", ErrNotFound, need.item.ID)
			}
			return nil, err
		}
		if inv.QuantityAvailable < need.required {
			shortages = append(shortages, ShortLine{
				ItemID:    need.item.ID,
				SKU:       need.item.SKU,
				Title:     need.item.Title,
				Required:  need.required,
				Available: inv.QuantityAvailable,
				Short:     need.required - inv.QuantityAvailable,
			})
		}
	}
	return shortages, nil
}

// CanAssemble 只读预检：返回可否组装与全部缺口明细
func (s *AssemblyService) CanAssemble(kitID string, quantity int) (bool, []ShortLine, error) {
	if quantity <= 0 {
		return false, nil, &ValidationError{Field: "quantity", Message: "必须为正整数", Value: quantity}
	}
	_, needs, err := s.loadNeeds(s.db, kitID, quantity)
	if err != nil {
		return false, nil, err
	}
	var shortages []ShortLine
	for _, need := range needs {
		inv, err := s.invRepo.GetByItem(need.item.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil, fmt.Errorf("%w: 库存记录 %s", ErrNotFound, need.item.ID)
			}
			return false, nil, err
		}
		if inv.QuantityAvailable < need.required {
			shortages = append(shortages, ShortLine{
				ItemID:    need.item.ID,
				SKU:       need.item.SKU,
				Title:     need.item.Title,
				Required:  need.required,
				Available: inv.QuantityAvailable,
				Short:     need.required - inv.QuantityAvailable,
			})
		}
	}
	return len(shortages) == 0, shortages, nil
}

// Assemble 组装 quantity 个套件：扣组件、进成品，全成或全不成
func (s *AssemblyService) Assemble(kitID string, quantity int, performedBy string) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "必须为正整数", Value: quantity}
	}

	var kit *entity.Item
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var needs []componentNeed
		var err error
		kit, needs, err = s.loadNeeds(tx, kitID, quantity)
		if err != nil {
			return err
		}
		shortages, err := s.checkShortages(tx, needs)
		if err != nil {
			return err
		}
		if len(shortages) > 0 {
			return &InsufficientInventoryError{Lines: shortages}
		}

		for _, need := range needs {
			_, err := applyLedgerMutation(tx, s.invRepo, s.itemRepo, ledgerMutation{
				ItemID:          need.item.ID,
				Quantity:        -need.required,
				TransactionType: entity.TxTypeKitAssembly,
				ReferenceType:   entity.RefTypeKit,
				ReferenceID:     kitID,
				Notes:           fmt.Sprintf("组装 %d x %s", quantity, kit.SKU),
				PerformedBy:     performedBy,
			})
			if err != nil {
				return err
			}
		}
		if kit.TrackInventory {
			_, err := applyLedgerMutation(tx, s.invRepo, s.itemRepo, ledgerMutation{
				ItemID:          kitID,
				Quantity:        float64(quantity),
				TransactionType: entity.TxTypeKitAssembly,
				ReferenceType:   entity.RefTypeKit,
				ReferenceID:     kitID,
				Notes:           fmt.Sprintf("组装入库 %d x %s", quantity, kit.SKU),
				PerformedBy:     performedBy,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("kit assembled",
		zap.String("kit_id", kitID),
		zap.String("sku", kit.SKU),
		zap.Int("quantity", quantity))
	s.events.Publish(context.Background(), "kit.assembled", map[string]any{
		"kit_id":   kitID,
		"sku":      kit.SKU,
		"quantity": quantity,
	})
	return nil
}
