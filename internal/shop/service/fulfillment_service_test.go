package service

import (
	"errors"
	"testing"

	"github.com/victorydiv/etsyapp/internal/shop/entity"
)

func seedStockedItem(t *testing.T, services *Services, sku string, stock float64) *entity.Item {
	t.Helper()
	item, err := services.Catalog.Create(CreateItemRequest{SKU: sku, Title: sku})
	if err != nil {
		t.Fatalf("seed item %s: %v", sku, err)
	}
	if stock > 0 {
		if _, err := services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: stock}); err != nil {
			t.Fatalf("seed stock %s: %v", sku, err)
		}
	}
	return item
}

func TestCreateOrderSnapshot(t *testing.T) {
	services, _ := newTestServices(t)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3001",
		BuyerName:       "Jane",
		TotalAmount:     24.50,
		Items: []OrderLineRequest{
			{SKU: "ORD-A", Title: "Item A", Quantity: 2, Price: 10},
			{SKU: "", Title: "Custom note", Quantity: 1, Price: 4.50},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if order.Status != entity.OrderStatusPending {
		t.Errorf("Expected pending, got %q", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(order.Items))
	}
}

func TestCreateOrderDuplicateExternalID(t *testing.T) {
	services, _ := newTestServices(t)

	req := CreateOrderRequest{
		ExternalOrderID: "3002",
		Items:           []OrderLineRequest{{SKU: "X", Quantity: 1}},
	}
	if _, err := services.Fulfillment.Create(req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := services.Fulfillment.Create(req)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for duplicate external id, got %v", err)
	}
}

func TestMarkPackedDebitsInventory(t *testing.T) {
	services, _ := newTestServices(t)
	item := seedStockedItem(t, services, "PACK-A", 10)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3003",
		Items: []OrderLineRequest{
			{SKU: "PACK-A", Quantity: 3},
			{SKU: "UNKNOWN-SKU", Quantity: 5}, // 解析不到的行跳过
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	order, err = services.Fulfillment.MarkPacked(order.ID, "tester")
	if err != nil {
		t.Fatalf("MarkPacked failed: %v", err)
	}
	if order.Status != entity.OrderStatusPacked || !order.Packed {
		t.Errorf("Expected packed, got status=%q packed=%v", order.Status, order.Packed)
	}

	inv, _ := services.Inventory.Get(item.ID)
	if inv.QuantityOnHand != 7 {
		t.Errorf("Expected on_hand 7, got %g", inv.QuantityOnHand)
	}

	txs, _ := services.Inventory.TransactionHistory(item.ID, 10)
	found := false
	for _, tx := range txs {
		if tx.TransactionType == entity.TxTypeSale && tx.ReferenceType == entity.RefTypeOrder && tx.ReferenceID == order.ID {
			found = true
			if tx.Quantity != -3 {
				t.Errorf("Expected sale quantity -3, got %g", tx.Quantity)
			}
		}
	}
	if !found {
		t.Error("Expected a sale transaction referencing the order")
	}
}

func TestMarkPackedAllOrNothing(t *testing.T) {
	services, _ := newTestServices(t)
	a := seedStockedItem(t, services, "PACK-FULL", 10)
	b := seedStockedItem(t, services, "PACK-SHORT", 1)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3004",
		Items: []OrderLineRequest{
			{SKU: "PACK-FULL", Quantity: 2},
			{SKU: "PACK-SHORT", Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = services.Fulfillment.MarkPacked(order.ID, "tester")
	var shortErr *InsufficientInventoryError
	if !errors.As(err, &shortErr) {
		t.Fatalf("Expected InsufficientInventoryError, got %v", err)
	}
	if len(shortErr.Lines) != 1 || shortErr.Lines[0].SKU != "PACK-SHORT" {
		t.Fatalf("Expected shortage for PACK-SHORT, got %+v", shortErr.Lines)
	}
	if shortErr.Lines[0].Short != 4 {
		t.Errorf("Expected short 4, got %g", shortErr.Lines[0].Short)
	}

	// 充足的那行也不能动
	invA, _ := services.Inventory.Get(a.ID)
	if invA.QuantityOnHand != 10 {
		t.Errorf("Expected PACK-FULL untouched at 10, got %g", invA.QuantityOnHand)
	}
	invB, _ := services.Inventory.Get(b.ID)
	if invB.QuantityOnHand != 1 {
		t.Errorf("Expected PACK-SHORT untouched at 1, got %g", invB.QuantityOnHand)
	}

	got, _ := services.Fulfillment.Get(order.ID)
	if got.Status != entity.OrderStatusPending {
		t.Errorf("Expected order still pending, got %q", got.Status)
	}
}

func TestUnpackRestoresInventory(t *testing.T) {
	services, _ := newTestServices(t)
	item := seedStockedItem(t, services, "UNPACK-A", 10)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3005",
		Items:           []OrderLineRequest{{SKU: "UNPACK-A", Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); err != nil {
		t.Fatalf("MarkPacked failed: %v", err)
	}

	order, err = services.Fulfillment.Unpack(order.ID, "tester")
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if order.Status != entity.OrderStatusPending || order.Packed {
		t.Errorf("Expected pending after unpack, got status=%q packed=%v", order.Status, order.Packed)
	}

	inv, _ := services.Inventory.Get(item.ID)
	if inv.QuantityOnHand != 10 {
		t.Errorf("Expected on_hand restored to 10, got %g", inv.QuantityOnHand)
	}

	// 回退走 adjustment/order_unpack 流水
	txs, _ := services.Inventory.TransactionHistory(item.ID, 10)
	found := false
	for _, tx := range txs {
		if tx.ReferenceType == entity.RefTypeOrderUnpack && tx.Quantity == 4 {
			found = true
		}
	}
	if !found {
		t.Error("Expected an order_unpack transaction crediting 4")
	}
}

// 打包后改商品设置，拆包仍按打包时实际出库的量退回
func TestUnpackRestoresAfterTrackingToggle(t *testing.T) {
	services, _ := newTestServices(t)
	item := seedStockedItem(t, services, "UNPACK-TOGGLE", 10)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3010",
		Items:           []OrderLineRequest{{SKU: "UNPACK-TOGGLE", Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); err != nil {
		t.Fatalf("MarkPacked failed: %v", err)
	}

	tracked := false
	if _, err := services.Catalog.Update(item.ID, UpdateItemRequest{TrackInventory: &tracked}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := services.Fulfillment.Unpack(order.ID, "tester"); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	inv, _ := services.Inventory.Get(item.ID)
	if inv.QuantityOnHand != 10 {
		t.Errorf("Expected on_hand restored to 10, got %g", inv.QuantityOnHand)
	}
}

// 打包-拆包反复后取消，只退回尚未退回的净出库量
func TestRepackCycleCreditsNetOnce(t *testing.T) {
	services, _ := newTestServices(t)
	item := seedStockedItem(t, services, "REPACK-A", 10)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3011",
		Items:           []OrderLineRequest{{SKU: "REPACK-A", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); err != nil {
		t.Fatalf("MarkPacked failed: %v", err)
	}
	if _, err := services.Fulfillment.Unpack(order.ID, "tester"); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); err != nil {
		t.Fatalf("Repack failed: %v", err)
	}
	if _, err := services.Fulfillment.Cancel(order.ID, "tester"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	inv, _ := services.Inventory.Get(item.ID)
	if inv.QuantityOnHand != 10 {
		t.Errorf("Expected on_hand restored to 10, got %g", inv.QuantityOnHand)
	}
}

func TestUnpackRequiresPacked(t *testing.T) {
	services, _ := newTestServices(t)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3006",
		Items:           []OrderLineRequest{{SKU: "X", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Fulfillment.Unpack(order.ID, "tester"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}

func TestCancelPackedRestoresInventory(t *testing.T) {
	services, _ := newTestServices(t)
	item := seedStockedItem(t, services, "CXL-A", 8)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3007",
		Items:           []OrderLineRequest{{SKU: "CXL-A", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); err != nil {
		t.Fatalf("MarkPacked failed: %v", err)
	}

	order, err = services.Fulfillment.Cancel(order.ID, "tester")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if order.Status != entity.OrderStatusCancelled {
		t.Errorf("Expected cancelled, got %q", order.Status)
	}

	inv, _ := services.Inventory.Get(item.ID)
	if inv.QuantityOnHand != 8 {
		t.Errorf("Expected on_hand restored to 8, got %g", inv.QuantityOnHand)
	}

	txs, _ := services.Inventory.TransactionHistory(item.ID, 10)
	found := false
	for _, tx := range txs {
		if tx.ReferenceType == entity.RefTypeOrderCancel && tx.Quantity == 3 {
			found = true
		}
	}
	if !found {
		t.Error("Expected an order_cancel transaction crediting 3")
	}
}

func TestCancelPendingLeavesInventoryAlone(t *testing.T) {
	services, _ := newTestServices(t)
	item := seedStockedItem(t, services, "CXL-PEND", 5)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3008",
		Items:           []OrderLineRequest{{SKU: "CXL-PEND", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Fulfillment.Cancel(order.ID, "tester"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	inv, _ := services.Inventory.Get(item.ID)
	if inv.QuantityOnHand != 5 {
		t.Errorf("Expected on_hand 5, got %g", inv.QuantityOnHand)
	}
}

func TestUpdateTrackingSetsShipped(t *testing.T) {
	services, _ := newTestServices(t)
	seedStockedItem(t, services, "SHIP-A", 5)

	order, err := services.Fulfillment.Create(CreateOrderRequest{
		ExternalOrderID: "3009",
		Items:           []OrderLineRequest{{SKU: "SHIP-A", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// pending 不能直接发运
	if _, err := services.Fulfillment.UpdateTracking(order.ID, "1Z111", "UPS"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState for pending order, got %v", err)
	}

	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); err != nil {
		t.Fatalf("MarkPacked failed: %v", err)
	}
	order, err = services.Fulfillment.UpdateTracking(order.ID, "1Z111", "UPS")
	if err != nil {
		t.Fatalf("UpdateTracking failed: %v", err)
	}
	if order.Status != entity.OrderStatusShipped || order.TrackingNumber != "1Z111" {
		t.Errorf("Unexpected order: status=%q tracking=%q", order.Status, order.TrackingNumber)
	}

	// 发运后不能再打包或拆包
	if _, err := services.Fulfillment.MarkPacked(order.ID, "tester"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
	if _, err := services.Fulfillment.Unpack(order.ID, "tester"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}
