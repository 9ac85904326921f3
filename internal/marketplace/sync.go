package marketplace

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/victorydiv/etsyapp/internal/shop/service"
	"go.uber.org/zap"
)

// SyncResult 一轮同步的统计
type SyncResult struct {
	ListingsMatched int `json:"listings_matched"`
	ItemsUpdated    int `json:"items_updated"`
	OrdersImported  int `json:"orders_imported"`
	OrdersSkipped   int `json:"orders_skipped"`
}

// Syncer 平台数据单向拉取：listing 刷新商品主数据，
// 未发货订单落成本地待打包订单。本地库存始终以台账为准，
// 同步不回写平台。
type Syncer struct {
	client      *Client
	catalog     *service.CatalogService
	fulfillment *service.FulfillmentService
	logger      *zap.Logger
}

func NewSyncer(client *Client, catalog *service.CatalogService, fulfillment *service.FulfillmentService, logger *zap.Logger) *Syncer {
	return &Syncer{client: client, catalog: catalog, fulfillment: fulfillment, logger: logger}
}

// SyncListings 按 SKU 匹配本地商品，刷新 listing 关联、标题、售价
func (s *Syncer) SyncListings(ctx context.Context) (*SyncResult, error) {
	listings, err := s.client.GetActiveListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取listing失败: %w", err)
	}

	result := &SyncResult{}
	for _, listing := range listings {
		sku := listing.PrimarySKU()
		if sku == "" {
			continue
		}
		item, err := s.catalog.GetBySKU(sku)
		if err != nil {
			// 平台上有但本地未建档的 SKU 不自动建档，留给人工决定
			continue
		}
		result.ListingsMatched++

		listingID := listing.ExternalID()
		price := listing.Price.Value()
		req := service.UpdateItemRequest{}
		changed := false
		if item.MarketplaceListingID != listingID {
			req.MarketplaceListingID = &listingID
			changed = true
		}
		if item.SellPrice != price && price > 0 {
			req.SellPrice = &price
			changed = true
		}
		if item.Title != listing.Title && listing.Title != "" {
			req.Title = &listing.Title
			changed = true
		}
		if changed {
			if _, err := s.catalog.Update(item.ID, req); err != nil {
				s.logger.Warn("listing sync update failed",
					zap.String("sku", sku), zap.Error(err))
				continue
			}
			result.ItemsUpdated++
		}
		if err := s.catalog.TouchLastSynced(item.ID); err != nil {
			s.logger.Warn("touch last_synced failed",
				zap.String("sku", sku), zap.Error(err))
		}
	}

	s.logger.Info("listing sync finished",
		zap.Int("listings", len(listings)),
		zap.Int("matched", result.ListingsMatched),
		zap.Int("updated", result.ItemsUpdated))
	return result, nil
}

// SyncOrders 导入已付款未发货订单，已存在的订单跳过
func (s *Syncer) SyncOrders(ctx context.Context) (*SyncResult, error) {
	receipts, err := s.client.GetOpenReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取订单失败: %w", err)
	}

	result := &SyncResult{}
	for _, receipt := range receipts {
		externalID := strconv.Itoa(receipt.ReceiptID)
		if _, err := s.fulfillment.GetByExternalID(externalID); err == nil {
			result.OrdersSkipped++
			continue
		}

		req := service.CreateOrderRequest{
			ExternalOrderID: externalID,
			BuyerName:       receipt.Name,
			BuyerEmail:      receipt.BuyerEmail,
			ShippingAddress: receipt.FormattedAddress,
			TotalAmount:     receipt.GrandTotal.Value(),
			OrderDate:       time.Unix(receipt.CreateTimestamp, 0).Format("2006-01-02"),
		}
		for _, txn := range receipt.Transactions {
			req.Items = append(req.Items, service.OrderLineRequest{
				MarketplaceListingID: strconv.Itoa(txn.ListingID),
				SKU:                  txn.SKU,
				Title:                txn.Title,
				Quantity:             float64(txn.Quantity),
				Price:                txn.Price.Value(),
			})
		}
		if _, err := s.fulfillment.Create(req); err != nil {
			s.logger.Warn("order import failed",
				zap.String("external_order_id", externalID), zap.Error(err))
			continue
		}
		result.OrdersImported++
	}

	s.logger.Info("order sync finished",
		zap.Int("receipts", len(receipts)),
		zap.Int("imported", result.OrdersImported),
		zap.Int("skipped", result.OrdersSkipped))
	return result, nil
}

// SyncAll listing 与订单各跑一轮
func (s *Syncer) SyncAll(ctx context.Context) (*SyncResult, error) {
	listingResult, err := s.SyncListings(ctx)
	if err != nil {
		return nil, err
	}
	orderResult, err := s.SyncOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &SyncResult{
		ListingsMatched: listingResult.ListingsMatched,
		ItemsUpdated:    listingResult.ItemsUpdated,
		OrdersImported:  orderResult.OrdersImported,
		OrdersSkipped:   orderResult.OrdersSkipped,
	}, nil
}

// RunPeriodic 按固定间隔循环同步，ctx 取消后退出
func (s *Syncer) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SyncAll(ctx); err != nil {
				s.logger.Error("periodic sync failed", zap.Error(err))
			}
		}
	}
}
