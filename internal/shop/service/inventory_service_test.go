package service

import (
	"errors"
	"testing"

	"github.com/victorydiv/etsyapp/internal/shop/entity"
)

func TestAdjustAppliesSignedDelta(t *testing.T) {
	services, _ := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{SKU: "ADJ-001", Title: "Adj"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	inv, err := services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: 10, Notes: "initial count"})
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if inv.QuantityOnHand != 10 || inv.QuantityAvailable != 10 {
		t.Errorf("Expected 10/10, got on_hand=%g available=%g", inv.QuantityOnHand, inv.QuantityAvailable)
	}

	// 增量叠加在当前量上，不是覆盖
	inv, err = services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: 5})
	if err != nil {
		t.Fatalf("Adjust up failed: %v", err)
	}
	if inv.QuantityOnHand != 15 {
		t.Errorf("Expected 15, got %g", inv.QuantityOnHand)
	}

	inv, err = services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: -6})
	if err != nil {
		t.Fatalf("Adjust down failed: %v", err)
	}
	if inv.QuantityOnHand != 9 {
		t.Errorf("Expected 9, got %g", inv.QuantityOnHand)
	}

	txs, err := services.Inventory.TransactionHistory(item.ID, 10)
	if err != nil {
		t.Fatalf("TransactionHistory failed: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.TransactionType != entity.TxTypeAdjustment {
			t.Errorf("Expected adjustment type, got %q", tx.TransactionType)
		}
	}
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	services, _ := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{SKU: "ADJ-NEG", Title: "Neg"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: 3}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	_, err = services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: -5})
	var shortErr *InsufficientInventoryError
	if !errors.As(err, &shortErr) {
		t.Fatalf("Expected InsufficientInventoryError, got %v", err)
	}

	inv, err := services.Inventory.Get(item.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if inv.QuantityOnHand != 3 {
		t.Errorf("Expected on_hand untouched at 3, got %g", inv.QuantityOnHand)
	}
}

func TestAdjustZeroLeavesNoTransaction(t *testing.T) {
	services, _ := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{SKU: "ADJ-NOOP", Title: "Noop"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: 5}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if _, err := services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: 0}); err != nil {
		t.Fatalf("Zero adjust failed: %v", err)
	}

	txs, err := services.Inventory.TransactionHistory(item.ID, 10)
	if err != nil {
		t.Fatalf("TransactionHistory failed: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("Expected 1 transaction after zero adjust, got %d", len(txs))
	}
}

// 任意操作序列后，流水之和恒等于当前在库量
func TestLedgerConservation(t *testing.T) {
	services, db := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{SKU: "LEDGER-001", Title: "Ledger"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, delta := range []float64{10, -6, 26, -18} {
		if _, err := services.Inventory.Adjust(item.ID, AdjustRequest{Quantity: delta}); err != nil {
			t.Fatalf("Adjust by %g failed: %v", delta, err)
		}
	}

	var sum struct{ Total float64 }
	if err := db.Raw("SELECT COALESCE(SUM(quantity),0) AS total FROM inventory_transactions WHERE item_id = ?", item.ID).
		Scan(&sum).Error; err != nil {
		t.Fatalf("Sum query failed: %v", err)
	}

	inv, err := services.Inventory.Get(item.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sum.Total != inv.QuantityOnHand {
		t.Errorf("Ledger sum %g != on_hand %g", sum.Total, inv.QuantityOnHand)
	}
	if inv.QuantityOnHand != 12 {
		t.Errorf("Expected final on_hand 12, got %g", inv.QuantityOnHand)
	}
}

func TestItemsBelowReorderPoint(t *testing.T) {
	services, _ := newTestServices(t)

	low, err := services.Catalog.Create(CreateItemRequest{
		SKU: "LOW-001", Title: "Low", ReorderPoint: 10, ReorderQuantity: 50, SupplierName: "Acme",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	ok, err := services.Catalog.Create(CreateItemRequest{
		SKU: "OK-001", Title: "OK", ReorderPoint: 10,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := services.Inventory.Adjust(low.ID, AdjustRequest{Quantity: 3}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if _, err := services.Inventory.Adjust(ok.ID, AdjustRequest{Quantity: 100}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	items, err := services.Inventory.ItemsBelowReorderPoint()
	if err != nil {
		t.Fatalf("ItemsBelowReorderPoint failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 reorder item, got %d", len(items))
	}
	got := items[0]
	if got.SKU != "LOW-001" || got.ReorderQuantity != 50 || got.SupplierName != "Acme" {
		t.Errorf("Unexpected reorder item: %+v", got)
	}
}

func TestTransactionHistoryNotFound(t *testing.T) {
	services, _ := newTestServices(t)

	_, err := services.Inventory.TransactionHistory("missing-item", 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
