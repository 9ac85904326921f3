package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService 库存台账。
// applyLedgerMutation 是仅有的库存变更入口，任何变更都与一条流水
// 在同一事务内落库，保证流水之和恒等于当前在库量。
type InventoryService struct {
	itemRepo *repository.ItemRepository
	invRepo  *repository.InventoryRepository
	db       *gorm.DB
	events   EventPublisher
	logger   *zap.Logger
}

func NewInventoryService(itemRepo *repository.ItemRepository, invRepo *repository.InventoryRepository, db *gorm.DB, events EventPublisher, logger *zap.Logger) *InventoryService {
	return &InventoryService{itemRepo: itemRepo, invRepo: invRepo, db: db, events: events, logger: logger}
}

// ledgerMutation 一次库存变更及其流水内容，Quantity 正入负出
type ledgerMutation struct {
	ItemID          string
	Quantity        float64
	TransactionType string
	ReferenceType   string
	ReferenceID     string
	Notes           string
	PerformedBy     string
}

// applyLedgerMutation 在事务内锁行、改量、重算可用量并追加流水。
// 出库导致在库量为负时拒绝，返回带缺口明细的库存不足错误。
func applyLedgerMutation(tx *gorm.DB, invRepo *repository.InventoryRepository, itemRepo *repository.ItemRepository, m ledgerMutation) (*entity.Inventory, error) {
	inv, err := invRepo.WithTx(tx).GetByItemForUpdate(m.ItemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 库存记录 %s", ErrNotFound, m.ItemID)
		}
		return nil, err
	}

	newOnHand := inv.QuantityOnHand + m.Quantity
	if newOnHand < 0 {
		line := ShortLine{
			ItemID:    m.ItemID,
			Required:  -m.Quantity,
			Available: inv.QuantityAvailable,
			Short:     -newOnHand,
		}
		if item, ierr := itemRepo.WithTx(tx).GetByID(m.ItemID); ierr == nil {
			line.SKU = item.SKU
			line.Title = item.Title
		}
		return nil, &InsufficientInventoryError{Lines: []ShortLine{line}}
	}

	inv.QuantityOnHand = newOnHand
	inv.RecalculateAvailable()
	inv.LastUpdated = time.Now()
	if err := invRepo.WithTx(tx).Update(inv); err != nil {
		return nil, fmt.Errorf("更新库存失败: %w", err)
	}

	record := &entity.InventoryTransaction{
		ID:              uuid.New().String(),
		ItemID:          m.ItemID,
		TransactionType: m.TransactionType,
		Quantity:        m.Quantity,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Notes:           m.Notes,
		PerformedBy:     m.PerformedBy,
	}
	if err := invRepo.WithTx(tx).CreateTransaction(record); err != nil {
		return nil, fmt.Errorf("写入库存流水失败: %w", err)
	}
	return inv, nil
}

func (s *InventoryService) Get(itemID string) (*entity.Inventory, error) {
	inv, err := s.invRepo.GetByItem(itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 库存记录 %s", ErrNotFound, itemID)
		}
		return nil, err
	}
	return inv, nil
}

type AdjustRequest struct {
	Quantity    float64 `json:"quantity"`
	Notes       string  `json:"notes"`
	PerformedBy string  `json:"performed_by"`
}

// Adjust 人工调整：带符号增减量，正数入库负数出库。
// 调整量为 0 直接返回，不产生流水；调整到负数由台账入口拒绝。
func (s *InventoryService) Adjust(itemID string, req AdjustRequest) (*entity.Inventory, error) {
	current, err := s.Get(itemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		return current, nil
	}

	var result *entity.Inventory
	err = s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := applyLedgerMutation(tx, s.invRepo, s.itemRepo, ledgerMutation{
			ItemID:          itemID,
			Quantity:        req.Quantity,
			TransactionType: entity.TxTypeAdjustment,
			ReferenceType:   entity.RefTypeAdjustment,
			Notes:           req.Notes,
			PerformedBy:     req.PerformedBy,
		})
		if err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(context.Background(), "inventory.adjusted", map[string]any{
		"item_id":          itemID,
		"quantity":         req.Quantity,
		"quantity_on_hand": result.QuantityOnHand,
	})
	return result, nil
}

// TransactionHistory 倒序流水
func (s *InventoryService) TransactionHistory(itemID string, limit int) ([]entity.InventoryTransaction, error) {
	if _, err := s.Get(itemID); err != nil {
		return nil, err
	}
	return s.invRepo.ListTransactions(itemID, limit)
}

// ItemsBelowReorderPoint 补货清单
func (s *InventoryService) ItemsBelowReorderPoint() ([]entity.ReorderItem, error) {
	return s.invRepo.ListBelowReorderPoint()
}
