package service

import (
	"errors"
	"testing"

	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
)

func TestCreateItemCreatesInventory(t *testing.T) {
	services, db := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{
		SKU:      "WIDGET-001",
		Title:    "Widget",
		Category: entity.CategoryFinishedGood,
		BaseCost: 2.5,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.ID == "" {
		t.Fatal("Expected item ID to be set")
	}
	if item.Inventory == nil {
		t.Fatal("Expected inventory record to be created with the item")
	}
	if item.Inventory.QuantityOnHand != 0 || item.Inventory.QuantityAvailable != 0 {
		t.Errorf("Expected zero inventory, got on_hand=%g available=%g",
			item.Inventory.QuantityOnHand, item.Inventory.QuantityAvailable)
	}

	var inv entity.Inventory
	if err := db.Where("item_id = ?", item.ID).First(&inv).Error; err != nil {
		t.Fatalf("Inventory row not persisted: %v", err)
	}
}

func TestCreateItemDuplicateSKU(t *testing.T) {
	services, _ := newTestServices(t)

	if _, err := services.Catalog.Create(CreateItemRequest{SKU: "DUP-001", Title: "First"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := services.Catalog.Create(CreateItemRequest{SKU: "DUP-001", Title: "Second"})
	if !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("Expected ErrDuplicateSKU, got %v", err)
	}
}

func TestCreateItemInvalidCategory(t *testing.T) {
	services, _ := newTestServices(t)

	_, err := services.Catalog.Create(CreateItemRequest{SKU: "BAD-001", Title: "Bad", Category: "gadget"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validationErr.Field != "category" {
		t.Errorf("Expected field 'category', got %q", validationErr.Field)
	}
}

func TestCreateItemNegativeCost(t *testing.T) {
	services, _ := newTestServices(t)

	_, err := services.Catalog.Create(CreateItemRequest{SKU: "NEG-001", Title: "Neg", BaseCost: -1})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	services, _ := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{SKU: "UPD-001", Title: "Before", SellPrice: 10})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	title := "After"
	price := 12.5
	updated, err := services.Catalog.Update(item.ID, UpdateItemRequest{Title: &title, SellPrice: &price})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "After" || updated.SellPrice != 12.5 {
		t.Errorf("Update not applied: title=%q price=%g", updated.Title, updated.SellPrice)
	}
	if updated.SKU != "UPD-001" {
		t.Errorf("SKU must not change, got %q", updated.SKU)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	services, _ := newTestServices(t)

	title := "X"
	_, err := services.Catalog.Update("missing-id", UpdateItemRequest{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeactivateItem(t *testing.T) {
	services, _ := newTestServices(t)

	item, err := services.Catalog.Create(CreateItemRequest{SKU: "DEACT-001", Title: "Gone"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := services.Catalog.Deactivate(item.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	got, err := services.Catalog.Get(item.ID)
	if err != nil {
		t.Fatalf("Get after deactivate failed: %v", err)
	}
	if got.IsActive {
		t.Error("Expected item to be inactive")
	}

	active, err := services.Catalog.List(repository.ItemListParams{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, a := range active {
		if a.ID == item.ID {
			t.Error("Deactivated item must not appear in active list")
		}
	}
}

func TestGetBySKU(t *testing.T) {
	services, _ := newTestServices(t)

	created, err := services.Catalog.Create(CreateItemRequest{SKU: "SKU-LOOKUP", Title: "Lookup"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := services.Catalog.GetBySKU("SKU-LOOKUP")
	if err != nil {
		t.Fatalf("GetBySKU failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Expected item %s, got %s", created.ID, got.ID)
	}

	if _, err := services.Catalog.GetBySKU("NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
