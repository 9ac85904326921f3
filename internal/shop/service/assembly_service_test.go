package service

import (
	"errors"
	"testing"

	"github.com/victorydiv/etsyapp/internal/shop/entity"
)

// 建一个 20 珠 + 1.5 线的手链套件，组件备好库存
func setupKit(t *testing.T, services *Services, beadStock, cordStock float64) (kit, bead, cord *entity.Item) {
	t.Helper()
	bead = seedComponent(t, services, "ASM-BEAD", 0.10)
	cord = seedComponent(t, services, "ASM-CORD", 0.50)
	var err error
	kit, err = services.BOM.CreateKit(CreateKitRequest{
		Item: CreateItemRequest{SKU: "ASM-KIT", Title: "Bracelet"},
		Components: []BOMLineRequest{
			{ComponentItemID: bead.ID, QuantityRequired: 20},
			{ComponentItemID: cord.ID, QuantityRequired: 1.5},
		},
	})
	if err != nil {
		t.Fatalf("CreateKit failed: %v", err)
	}
	if _, err := services.Inventory.Adjust(bead.ID, AdjustRequest{Quantity: beadStock}); err != nil {
		t.Fatalf("Adjust bead failed: %v", err)
	}
	if _, err := services.Inventory.Adjust(cord.ID, AdjustRequest{Quantity: cordStock}); err != nil {
		t.Fatalf("Adjust cord failed: %v", err)
	}
	return kit, bead, cord
}

func TestAssembleDebitsComponentsCreditsKit(t *testing.T) {
	services, _ := newTestServices(t)
	kit, bead, cord := setupKit(t, services, 100, 10)

	if err := services.Assembly.Assemble(kit.ID, 3, "tester"); err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	beadInv, _ := services.Inventory.Get(bead.ID)
	cordInv, _ := services.Inventory.Get(cord.ID)
	kitInv, _ := services.Inventory.Get(kit.ID)

	if beadInv.QuantityOnHand != 40 { // 100 - 3*20
		t.Errorf("Expected bead on_hand 40, got %g", beadInv.QuantityOnHand)
	}
	if cordInv.QuantityOnHand != 5.5 { // 10 - 3*1.5
		t.Errorf("Expected cord on_hand 5.5, got %g", cordInv.QuantityOnHand)
	}
	if kitInv.QuantityOnHand != 3 {
		t.Errorf("Expected kit on_hand 3, got %g", kitInv.QuantityOnHand)
	}

	// 流水类型与引用
	txs, err := services.Inventory.TransactionHistory(kit.ID, 10)
	if err != nil {
		t.Fatalf("TransactionHistory failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("Expected 1 kit transaction, got %d", len(txs))
	}
	if txs[0].TransactionType != entity.TxTypeKitAssembly ||
		txs[0].ReferenceType != entity.RefTypeKit ||
		txs[0].ReferenceID != kit.ID {
		t.Errorf("Unexpected kit transaction: %+v", txs[0])
	}
}

func TestAssembleInsufficientRollsBack(t *testing.T) {
	services, _ := newTestServices(t)
	kit, bead, cord := setupKit(t, services, 100, 1) // 线不够组装一个

	err := services.Assembly.Assemble(kit.ID, 1, "tester")
	var shortErr *InsufficientInventoryError
	if !errors.As(err, &shortErr) {
		t.Fatalf("Expected InsufficientInventoryError, got %v", err)
	}
	if len(shortErr.Lines) != 1 || shortErr.Lines[0].SKU != "ASM-CORD" {
		t.Fatalf("Expected shortage for ASM-CORD, got %+v", shortErr.Lines)
	}
	if shortErr.Lines[0].Required != 1.5 || shortErr.Lines[0].Available != 1 {
		t.Errorf("Unexpected shortage detail: %+v", shortErr.Lines[0])
	}

	// 珠子一个都不能动
	beadInv, _ := services.Inventory.Get(bead.ID)
	if beadInv.QuantityOnHand != 100 {
		t.Errorf("Expected bead untouched at 100, got %g", beadInv.QuantityOnHand)
	}
	cordInv, _ := services.Inventory.Get(cord.ID)
	if cordInv.QuantityOnHand != 1 {
		t.Errorf("Expected cord untouched at 1, got %g", cordInv.QuantityOnHand)
	}
	kitInv, _ := services.Inventory.Get(kit.ID)
	if kitInv.QuantityOnHand != 0 {
		t.Errorf("Expected kit untouched at 0, got %g", kitInv.QuantityOnHand)
	}
}

func TestAssembleReportsAllShortages(t *testing.T) {
	services, _ := newTestServices(t)
	kit, _, _ := setupKit(t, services, 5, 1) // 两种组件都不够

	err := services.Assembly.Assemble(kit.ID, 1, "tester")
	var shortErr *InsufficientInventoryError
	if !errors.As(err, &shortErr) {
		t.Fatalf("Expected InsufficientInventoryError, got %v", err)
	}
	if len(shortErr.Lines) != 2 {
		t.Fatalf("Expected 2 shortage lines, got %d", len(shortErr.Lines))
	}
}

func TestCanAssemble(t *testing.T) {
	services, _ := newTestServices(t)
	kit, _, _ := setupKit(t, services, 40, 3)

	// 40/20=2, 3/1.5=2 → 最多 2 套
	ok, shortages, err := services.Assembly.CanAssemble(kit.ID, 2)
	if err != nil {
		t.Fatalf("CanAssemble failed: %v", err)
	}
	if !ok || len(shortages) != 0 {
		t.Errorf("Expected assemblable, got ok=%v shortages=%+v", ok, shortages)
	}

	ok, shortages, err = services.Assembly.CanAssemble(kit.ID, 3)
	if err != nil {
		t.Fatalf("CanAssemble failed: %v", err)
	}
	if ok || len(shortages) != 2 {
		t.Errorf("Expected 2 shortages at quantity 3, got ok=%v shortages=%+v", ok, shortages)
	}
}

func TestAssembleRejectsNonKit(t *testing.T) {
	services, _ := newTestServices(t)
	plain := seedComponent(t, services, "ASM-PLAIN", 1)

	err := services.Assembly.Assemble(plain.ID, 1, "tester")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}

func TestAssembleRejectsNonPositiveQuantity(t *testing.T) {
	services, _ := newTestServices(t)
	kit, _, _ := setupKit(t, services, 100, 10)

	for _, quantity := range []int{0, -2} {
		err := services.Assembly.Assemble(kit.ID, quantity, "tester")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError for quantity %d, got %v", quantity, err)
		}
	}
}

func TestAssembleRejectsEmptyBOM(t *testing.T) {
	services, _ := newTestServices(t)

	kit, err := services.Catalog.Create(CreateItemRequest{
		SKU: "ASM-EMPTY", Title: "Empty", Category: entity.CategoryKit,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err = services.Assembly.Assemble(kit.ID, 1, "tester")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState for empty BOM, got %v", err)
	}
}
