package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InboundService 采购单（PO）与收货入库。
// 支持分批收货：每次收货按行累计 quantity_received 并入账库存，
// 全部行收齐后采购单才转入 received 终态。
type InboundService struct {
	itemRepo    *repository.ItemRepository
	inboundRepo *repository.InboundRepository
	invRepo     *repository.InventoryRepository
	db          *gorm.DB
	events      EventPublisher
	logger      *zap.Logger
}

func NewInboundService(itemRepo *repository.ItemRepository, inboundRepo *repository.InboundRepository, invRepo *repository.InventoryRepository, db *gorm.DB, events EventPublisher, logger *zap.Logger) *InboundService {
	return &InboundService{itemRepo: itemRepo, inboundRepo: inboundRepo, invRepo: invRepo, db: db, events: events, logger: logger}
}

type InboundLineRequest struct {
	ItemID          string  `json:"item_id" binding:"required"`
	QuantityOrdered float64 `json:"quantity_ordered" binding:"required,gt=0"`
	UnitCost        float64 `json:"unit_cost"`
}

type CreateInboundRequest struct {
	SupplierName string               `json:"supplier_name" binding:"required"`
	OrderDate    string               `json:"order_date"`    // YYYY-MM-DD，缺省当天
	ExpectedDate string               `json:"expected_date"` // YYYY-MM-DD
	ShippingCost float64              `json:"shipping_cost"`
	Tax          float64              `json:"tax"`
	Notes        string               `json:"notes"`
	Items        []InboundLineRequest `json:"items" binding:"required,min=1"`
}

// nextPONumber 取现存最大 PO 号的数字后缀加一，零填充六位
func (s *InboundService) nextPONumber(tx *gorm.DB) (string, error) {
	last, err := s.inboundRepo.WithTx(tx).LastPONumber()
	if err != nil {
		return "", fmt.Errorf("查询PO号失败: %w", err)
	}
	seq := 0
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, "PO")); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("PO%06d", seq+1), nil
}

func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "日期格式应为 YYYY-MM-DD", Value: value}
	}
	return &t, nil
}

func (s *InboundService) validateLines(lines []InboundLineRequest) error {
	if len(lines) == 0 {
		return &ValidationError{Field: "items", Message: "至少需要一行"}
	}
	for _, line := range lines {
		if line.QuantityOrdered <= 0 {
			return &ValidationError{Field: "quantity_ordered", Message: "必须大于 0", Value: line.QuantityOrdered}
		}
		if line.UnitCost < 0 {
			return &ValidationError{Field: "unit_cost", Message: "不能为负", Value: line.UnitCost}
		}
		if _, err := s.itemRepo.GetByID(line.ItemID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: 商品 %s", ErrNotFound, line.ItemID)
			}
			return err
		}
	}
	return nil
}

// resolveUnitCost 行上未给单价时取商品当前成本
func (s *InboundService) resolveUnitCost(line InboundLineRequest) float64 {
	if line.UnitCost != 0 {
		return line.UnitCost
	}
	item, err := s.itemRepo.GetByID(line.ItemID)
	if err != nil {
		return 0
	}
	return item.UnitCost()
}

func (s *InboundService) Create(req CreateInboundRequest) (*entity.InboundOrder, error) {
	if err := s.validateLines(req.Items); err != nil {
		return nil, err
	}
	if req.ShippingCost < 0 {
		return nil, &ValidationError{Field: "shipping_cost", Message: "不能为负", Value: req.ShippingCost}
	}
	if req.Tax < 0 {
		return nil, &ValidationError{Field: "tax", Message: "不能为负", Value: req.Tax}
	}
	expectedDate, err := parseDate("expected_date", req.ExpectedDate)
	if err != nil {
		return nil, err
	}
	orderDate := time.Now()
	if parsed, err := parseDate("order_date", req.OrderDate); err != nil {
		return nil, err
	} else if parsed != nil {
		orderDate = *parsed
	}

	var order *entity.InboundOrder
	err = s.db.Transaction(func(tx *gorm.DB) error {
		poNumber, err := s.nextPONumber(tx)
		if err != nil {
			return err
		}
		order = &entity.InboundOrder{
			ID:           uuid.New().String(),
			PONumber:     poNumber,
			SupplierName: req.SupplierName,
			Status:       entity.InboundStatusOrdered,
			OrderDate:    orderDate,
			ExpectedDate: expectedDate,
			ShippingCost: req.ShippingCost,
			Tax:          req.Tax,
			Notes:        req.Notes,
		}
		for _, line := range req.Items {
			order.Items = append(order.Items, entity.InboundOrderItem{
				ID:              uuid.New().String(),
				InboundOrderID:  order.ID,
				ItemID:          line.ItemID,
				QuantityOrdered: line.QuantityOrdered,
				UnitCost:        s.resolveUnitCost(line),
			})
		}
		order.RecalculateTotals()
		if err := s.inboundRepo.WithTx(tx).Create(order); err != nil {
			return fmt.Errorf("创建采购单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inbound order created",
		zap.String("po_number", order.PONumber),
		zap.String("supplier", order.SupplierName),
		zap.Int("lines", len(order.Items)))
	return order, nil
}

type UpdateInboundRequest struct {
	SupplierName   *string  `json:"supplier_name"`
	ExpectedDate   *string  `json:"expected_date"`
	ShippingCost   *float64 `json:"shipping_cost"`
	Tax            *float64 `json:"tax"`
	TrackingNumber *string  `json:"tracking_number"`
	Carrier        *string  `json:"carrier"`
	Notes          *string  `json:"notes"`
}

// Update 更新采购单头部字段，终态单不可改
func (s *InboundService) Update(id string, req UpdateInboundRequest) (*entity.InboundOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: 采购单 %s 已是终态 %s", ErrInvalidState, order.PONumber, order.Status)
	}

	if req.SupplierName != nil {
		if *req.SupplierName == "" {
			return nil, &ValidationError{Field: "supplier_name", Message: "不能为空"}
		}
		order.SupplierName = *req.SupplierName
	}
	if req.ExpectedDate != nil {
		parsed, err := parseDate("expected_date", *req.ExpectedDate)
		if err != nil {
			return nil, err
		}
		order.ExpectedDate = parsed
	}
	if req.ShippingCost != nil {
		if *req.ShippingCost < 0 {
			return nil, &ValidationError{Field: "shipping_cost", Message: "不能为负", Value: *req.ShippingCost}
		}
		order.ShippingCost = *req.ShippingCost
	}
	if req.Tax != nil {
		if *req.Tax < 0 {
			return nil, &ValidationError{Field: "tax", Message: "不能为负", Value: *req.Tax}
		}
		order.Tax = *req.Tax
	}
	if req.TrackingNumber != nil {
		order.TrackingNumber = *req.TrackingNumber
	}
	if req.Carrier != nil {
		order.Carrier = *req.Carrier
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	order.RecalculateTotals()
	if err := s.inboundRepo.Update(order); err != nil {
		return nil, fmt.Errorf("更新采购单失败: %w", err)
	}
	return order, nil
}

// ReplaceLines 整体替换明细行。任何一行已有收货后行集不可再改。
func (s *InboundService) ReplaceLines(id string, lines []InboundLineRequest) (*entity.InboundOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: 采购单 %s 已是终态 %s", ErrInvalidState, order.PONumber, order.Status)
	}
	for _, item := range order.Items {
		if item.QuantityReceived > 0 {
			return nil, fmt.Errorf("%w: 采购单 %s 已有收货，明细不可修改", ErrInvalidState, order.PONumber)
		}
	}
	if err := s.validateLines(lines); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		items := make([]entity.InboundOrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, entity.InboundOrderItem{
				ID:              uuid.New().String(),
				InboundOrderID:  order.ID,
				ItemID:          line.ItemID,
				QuantityOrdered: line.QuantityOrdered,
				UnitCost:        s.resolveUnitCost(line),
			})
		}
		if err := s.inboundRepo.WithTx(tx).ReplaceItems(order.ID, items); err != nil {
			return fmt.Errorf("替换明细失败: %w", err)
		}
		order.Items = items
		order.RecalculateTotals()
		return s.inboundRepo.WithTx(tx).Update(order)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// MarkInTransit 发运：ordered → in_transit
func (s *InboundService) MarkInTransit(id, trackingNumber, carrier string) (*entity.InboundOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.InboundStatusOrdered {
		return nil, fmt.Errorf("%w: 采购单 %s 状态为 %s，只有 ordered 可发运", ErrInvalidState, order.PONumber, order.Status)
	}
	order.Status = entity.InboundStatusInTransit
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if carrier != "" {
		order.Carrier = carrier
	}
	if err := s.inboundRepo.Update(order); err != nil {
		return nil, fmt.Errorf("更新采购单失败: %w", err)
	}
	return order, nil
}

type ReceiveLineRequest struct {
	ItemID   string  `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity"` // 0 表示本批不收这一行
}

type ReceiveRequest struct {
	Lines       []ReceiveLineRequest `json:"lines"` // 缺省整单按剩余量收满
	PerformedBy string               `json:"performed_by"`
	Notes       string               `json:"notes"`
}

// Receive 分批收货：累计行收货量并入账库存，收齐后转 received。
// 请求里没点名的行默认收满剩余量，点名为 0 的行本批不收；
// 单行收货量不得超过该行剩余未收量。
func (s *InboundService) Receive(id string, req ReceiveRequest) (*entity.InboundOrder, error) {
	quantities := make(map[string]float64, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity < 0 {
			return nil, &ValidationError{Field: "quantity", Message: "不能为负", Value: line.Quantity}
		}
		quantities[line.ItemID] = line.Quantity
	}

	var order *entity.InboundOrder
	received := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.inboundRepo.WithTx(tx).GetByID(id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: 采购单 %s", ErrNotFound, id)
			}
			return err
		}
		if order.IsTerminal() {
			return fmt.Errorf("%w: 采购单 %s 已是终态 %s", ErrInvalidState, order.PONumber, order.Status)
		}

		onOrder := make(map[string]bool, len(order.Items))
		for _, item := range order.Items {
			onOrder[item.ItemID] = true
		}
		for itemID := range quantities {
			if !onOrder[itemID] {
				return fmt.Errorf("%w: 采购单 %s 没有商品 %s", ErrNotFound, order.PONumber, itemID)
			}
		}

		for i := range order.Items {
			orderItem := &order.Items[i]
			quantity, listed := quantities[orderItem.ItemID]
			if !listed {
				quantity = orderItem.Remaining()
			}
			if quantity == 0 {
				continue
			}
			if quantity > orderItem.Remaining() {
				return &ValidationError{
					Field:   "quantity",
					Message: fmt.Sprintf("超过剩余未收量 %g", orderItem.Remaining()),
					Value:   quantity,
				}
			}

			orderItem.QuantityReceived += quantity
			if err := s.inboundRepo.WithTx(tx).UpdateItem(orderItem); err != nil {
				return fmt.Errorf("更新采购单行失败: %w", err)
			}
			_, err := applyLedgerMutation(tx, s.invRepo, s.itemRepo, ledgerMutation{
				ItemID:          orderItem.ItemID,
				Quantity:        quantity,
				TransactionType: entity.TxTypeInbound,
				ReferenceType:   entity.RefTypeInboundOrder,
				ReferenceID:     order.ID,
				Notes:           fmt.Sprintf("%s 收货", order.PONumber),
				PerformedBy:     req.PerformedBy,
			})
			if err != nil {
				return err
			}
			received++
		}

		complete := true
		for _, item := range order.Items {
			if item.QuantityReceived < item.QuantityOrdered {
				complete = false
				break
			}
		}
		if complete {
			now := time.Now()
			order.Status = entity.InboundStatusReceived
			order.ReceivedDate = &now
		}
		return s.inboundRepo.WithTx(tx).Update(order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inbound order received",
		zap.String("po_number", order.PONumber),
		zap.String("status", order.Status),
		zap.Int("lines", received))
	s.events.Publish(context.Background(), "inbound.received", map[string]any{
		"inbound_order_id": order.ID,
		"po_number":        order.PONumber,
		"status":           order.Status,
	})
	return order, nil
}

// Cancel 取消采购单。已有收货的单不可取消。
func (s *InboundService) Cancel(id string) (*entity.InboundOrder, error) {
	order, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: 采购单 %s 已是终态 %s", ErrInvalidState, order.PONumber, order.Status)
	}
	for _, item := range order.Items {
		if item.QuantityReceived > 0 {
			return nil, fmt.Errorf("%w: 采购单 %s 已有收货，不可取消", ErrInvalidState, order.PONumber)
		}
	}
	order.Status = entity.InboundStatusCancelled
	if err := s.inboundRepo.Update(order); err != nil {
		return nil, fmt.Errorf("更新采购单失败: %w", err)
	}
	return order, nil
}

func (s *InboundService) Get(id string) (*entity.InboundOrder, error) {
	order, err := s.inboundRepo.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 采购单 %s", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (s *InboundService) GetByPONumber(poNumber string) (*entity.InboundOrder, error) {
	order, err := s.inboundRepo.GetByPONumber(poNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 采购单 %s", ErrNotFound, poNumber)
		}
		return nil, err
	}
	return order, nil
}

func (s *InboundService) List(status string) ([]entity.InboundOrder, error) {
	return s.inboundRepo.List(status)
}

func (s *InboundService) ListPending() ([]entity.InboundOrder, error) {
	return s.inboundRepo.ListPending()
}

func (s *InboundService) GetItemDetails(id string) ([]entity.InboundOrderItemDetail, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.inboundRepo.GetItemDetails(id)
}
