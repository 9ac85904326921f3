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

// FulfillmentService 销售订单履约。
// 打包是库存出库点：按行解析 SKU、整单检查、整单扣减，
// 任何一行不足则整单失败并返回全部缺口。
type FulfillmentService struct {
	itemRepo  *repository.ItemRepository
	salesRepo *repository.SalesRepository
	invRepo   *repository.InventoryRepository
	db        *gorm.DB
	events    EventPublisher
	logger    *zap.Logger
}

func NewFulfillmentService(itemRepo *repository.ItemRepository, salesRepo *repository.SalesRepository, invRepo *repository.InventoryRepository, db *gorm.DB, events EventPublisher, logger *zap.Logger) *FulfillmentService {
	return &FulfillmentService{itemRepo: itemRepo, salesRepo: salesRepo, invRepo: invRepo, db: db, events: events, logger: logger}
}

type OrderLineRequest struct {
	MarketplaceListingID string  `json:"marketplace_listing_id"`
	SKU                  string  `json:"sku"`
	Title                string  `json:"title"`
	Quantity             float64 `json:"quantity" binding:"required,gt=0"`
	Price                float64 `json:"price"`
}

type CreateOrderRequest struct {
	ExternalOrderID string             `json:"external_order_id"`
	BuyerName       string             `json:"buyer_name"`
	BuyerEmail      string             `json:"buyer_email"`
	ShippingAddress string             `json:"shipping_address"`
	TotalAmount     float64            `json:"total_amount"`
	OrderDate       string             `json:"order_date"` // YYYY-MM-DD，缺省当天
	Notes           string             `json:"notes"`
	Items           []OrderLineRequest `json:"items" binding:"required,min=1"`
}

// Create 登记销售订单，行内容为下单时快照。不触碰库存。
func (s *FulfillmentService) Create(req CreateOrderRequest) (*entity.SalesOrder, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "至少需要一行"}
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Message: "必须大于 0", Value: line.Quantity}
		}
	}

	externalID := req.ExternalOrderID
	if externalID == "" {
		externalID = "LOCAL-" + uuid.New().String()[:8]
	}
	if _, err := s.salesRepo.GetByExternalID(externalID); err == nil {
		return nil, &ValidationError{Field: "external_order_id", Message: "订单号已存在", Value: externalID}
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	orderDate := time.Now()
	if parsed, err := parseDate("order_date", req.OrderDate); err != nil {
		return nil, err
	} else if parsed != nil {
		orderDate = *parsed
	}

	order := &entity.SalesOrder{
		ID:              uuid.New().String(),
		ExternalOrderID: externalID,
		BuyerName:       req.BuyerName,
		BuyerEmail:      req.BuyerEmail,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.TotalAmount,
		OrderDate:       &orderDate,
		Status:          entity.OrderStatusPending,
		Notes:           req.Notes,
	}
	for _, line := range req.Items {
		order.Items = append(order.Items, entity.SalesOrderItem{
			ID:                   uuid.New().String(),
			OrderID:              order.ID,
			MarketplaceListingID: line.MarketplaceListingID,
			SKU:                  line.SKU,
			Title:                line.Title,
			Quantity:             line.Quantity,
			Price:                line.Price,
		})
	}
	if err := s.salesRepo.Create(order); err != nil {
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}

	s.logger.Info("sales order created",
		zap.String("external_order_id", order.ExternalOrderID),
		zap.Int("lines", len(order.Items)))
	return order, nil
}

// fulfillmentLine 订单行解析到商品后的出库需求
type fulfillmentLine struct {
	item     *entity.Item
	quantity float64
}

// resolveLines 按 SKU 解析订单行。解析不到商品或商品不追踪库存的行
// 不参与出入库，只保留订单快照。
func (s *FulfillmentService) resolveLines(tx *gorm.DB, items []entity.SalesOrderItem) ([]fulfillmentLine, error) {
	var lines []fulfillmentLine
	for _, orderItem := range items {
		if orderItem.SKU == "" {
			continue
		}
		item, err := s.itemRepo.WithTx(tx).GetBySKU(orderItem.SKU)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}
		if !item.TrackInventory {
			continue
		}
		lines = append(lines, fulfillmentLine{item: item, quantity: orderItem.Quantity})
	}
	return lines, nil
}

// MarkPacked 打包出库：pending → packed，整单扣减库存
func (s *FulfillmentService) MarkPacked(id, performedBy string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.getTx(tx, id)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusPending {
			return fmt.Errorf("%w: 订单 %s 状态为 %s，只有 pending 可打包", ErrInvalidState, order.ExternalOrderID, order.Status)
		}

		lines, err := s.resolveLines(tx, order.Items)
		if err != nil {
			return err
		}

		var shortages []ShortLine
		for _, line := range lines {
			inv, err := s.invRepo.WithTx(tx).GetByItemForUpdate(line.item.ID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: 库存记录 %s", ErrNotFound, line.item.ID)
				}
				return err
			}
			if inv.QuantityAvailable < line.quantity {
				shortages = append(shortages, ShortLine{
					ItemID:    line.item.ID,
					SKU:       line.item.SKU,
					Title:     line.item.Title,
					Required:  line.quantity,
					Available: inv.QuantityAvailable,
					Short:     line.quantity - inv.QuantityAvailable,
				})
			}
		}
		if len(shortages) > 0 {
			return &InsufficientInventoryError{Lines: shortages}
		}

		for _, line := range lines {
			_, err := applyLedgerMutation(tx, s.invRepo, s.itemRepo, ledgerMutation{
				ItemID:          line.item.ID,
				Quantity:        -line.quantity,
				TransactionType: entity.TxTypeSale,
				ReferenceType:   entity.RefTypeOrder,
				ReferenceID:     order.ID,
				Notes:           fmt.Sprintf("订单 %s 打包出库", order.ExternalOrderID),
				PerformedBy:     performedBy,
			})
			if err != nil {
				return err
			}
		}

		order.Status = entity.OrderStatusPacked
		order.Packed = true
		return s.salesRepo.WithTx(tx).Update(order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order packed",
		zap.String("external_order_id", order.ExternalOrderID))
	s.events.Publish(context.Background(), "order.packed", map[string]any{
		"order_id":          order.ID,
		"external_order_id": order.ExternalOrderID,
	})
	return order, nil
}

// Unpack 拆包回退：packed → pending，出库量原路退回
func (s *FulfillmentService) Unpack(id, performedBy string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.getTx(tx, id)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusPacked {
			return fmt.Errorf("%w: 订单 %s 状态为 %s，只有 packed 可拆包", ErrInvalidState, order.ExternalOrderID, order.Status)
		}
		if err := s.creditBack(tx, order, entity.RefTypeOrderUnpack, "拆包回退", performedBy); err != nil {
			return err
		}
		order.Status = entity.OrderStatusPending
		order.Packed = false
		return s.salesRepo.WithTx(tx).Update(order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order unpacked",
		zap.String("external_order_id", order.ExternalOrderID))
	return order, nil
}

// Cancel 取消订单。已打包未发货的单先退回库存再取消。
func (s *FulfillmentService) Cancel(id, performedBy string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.getTx(tx, id)
		if err != nil {
			return err
		}
		switch order.Status {
		case entity.OrderStatusPending:
		case entity.OrderStatusPacked:
			if err := s.creditBack(tx, order, entity.RefTypeOrderCancel, "取消订单回退", performedBy); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: 订单 %s 状态为 %s，不可取消", ErrInvalidState, order.ExternalOrderID, order.Status)
		}
		order.Status = entity.OrderStatusCancelled
		order.Packed = false
		return s.salesRepo.WithTx(tx).Update(order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("external_order_id", order.ExternalOrderID))
	s.events.Publish(context.Background(), "order.cancelled", map[string]any{
		"order_id":          order.ID,
		"external_order_id": order.ExternalOrderID,
	})
	return order, nil
}

// creditBack 把订单名下已出未回的量退回库存。按流水净额回退而不是
// 重新解析订单行，打包之后商品改了 SKU 或 track_inventory 也能退回原量。
func (s *FulfillmentService) creditBack(tx *gorm.DB, order *entity.SalesOrder, refType, noteSuffix, performedBy string) error {
	txs, err := s.invRepo.WithTx(tx).ListTransactionsByReference(order.ID)
	if err != nil {
		return err
	}
	net := make(map[string]float64, len(txs))
	var itemIDs []string
	for _, record := range txs {
		if _, ok := net[record.ItemID]; !ok {
			itemIDs = append(itemIDs, record.ItemID)
		}
		net[record.ItemID] += record.Quantity
	}
	for _, itemID := range itemIDs {
		outstanding := -net[itemID]
		if outstanding <= 0 {
			continue
		}
		_, err := applyLedgerMutation(tx, s.invRepo, s.itemRepo, ledgerMutation{
			ItemID:          itemID,
			Quantity:        outstanding,
			TransactionType: entity.TxTypeAdjustment,
			ReferenceType:   refType,
			ReferenceID:     order.ID,
			Notes:           fmt.Sprintf("订单 %s %s", order.ExternalOrderID, noteSuffix),
			PerformedBy:     performedBy,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateTracking 填运单号并转 shipped。只有 packed 或已 shipped 的单可改。
func (s *FulfillmentService) UpdateTracking(id, trackingNumber, carrier string) (*entity.SalesOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusPacked && order.Status != entity.OrderStatusShipped {
		return nil, fmt.Errorf("%w: 订单 %s 状态为 %s，不可填运单", ErrInvalidState, order.ExternalOrderID, order.Status)
	}
	if trackingNumber == "" {
		return nil, &ValidationError{Field: "tracking_number", Message: "不能为空"}
	}
	order.TrackingNumber = trackingNumber
	order.Carrier = carrier
	order.Status = entity.OrderStatusShipped
	if err := s.salesRepo.Update(order); err != nil {
		return nil, fmt.Errorf("更新订单失败: %w", err)
	}

	s.events.Publish(context.Background(), "order.shipped", map[string]any{
		"order_id":          order.ID,
		"external_order_id": order.ExternalOrderID,
		"tracking_number":   trackingNumber,
	})
	return order, nil
}

func (s *FulfillmentService) getTx(tx *gorm.DB, id string) (*entity.SalesOrder, error) {
	order, err := s.salesRepo.WithTx(tx).GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 订单 %s", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (s *FulfillmentService) Get(id string) (*entity.SalesOrder, error) {
	return s.getTx(s.db, id)
}

func (s *FulfillmentService) GetByExternalID(externalID string) (*entity.SalesOrder, error) {
	order, err := s.salesRepo.GetByExternalID(externalID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 订单 %s", ErrNotFound, externalID)
		}
		return nil, err
	}
	return order, nil
}

func (s *FulfillmentService) List(status string) ([]entity.SalesOrder, error) {
	return s.salesRepo.List(status)
}

func (s *FulfillmentService) GetOrderItems(id string) ([]entity.SalesOrderItem, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.salesRepo.GetOrderItems(id)
}
