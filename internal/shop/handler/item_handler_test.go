package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/event"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"github.com/victorydiv/etsyapp/internal/shop/service"
	"github.com/victorydiv/etsyapp/internal/shop/testutil"
	"go.uber.org/zap"
)

func setupItemTest(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, event.NoopPublisher{}, zap.NewNop())

	r := testutil.SetupRouter()
	v1 := testutil.AuthGroup(r, "/api/v1")

	itemHandler := NewItemHandler(services.Catalog, services.BOM)
	invHandler := NewInventoryHandler(services.Inventory, services.Assembly)

	items := v1.Group("/items")
	items.GET("", itemHandler.List)
	items.POST("", itemHandler.Create)
	items.GET("/:id", itemHandler.Get)
	items.PUT("/:id", itemHandler.Update)
	items.GET("/:id/bom", itemHandler.GetBOM)

	kits := v1.Group("/kits")
	kits.POST("", itemHandler.CreateKit)

	inventory := v1.Group("/inventory")
	inventory.GET("/:item_id", invHandler.Get)
	inventory.POST("/:item_id/adjust", invHandler.Adjust)

	return r
}

func TestItemCreateAndGet(t *testing.T) {
	r := setupItemTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/items", map[string]any{
		"sku":       "HTTP-001",
		"title":     "HTTP Widget",
		"category":  "component",
		"base_cost": 1.25,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", resp["data"])
	}
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatal("Expected item id in response")
	}
	if data["sku"] != "HTTP-001" {
		t.Errorf("Expected sku HTTP-001, got %v", data["sku"])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/items/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestItemCreateRequiresAuth(t *testing.T) {
	r := setupItemTest(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/items", map[string]any{
		"sku":   "NOAUTH-001",
		"title": "No Auth",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestItemDuplicateSKUConflict(t *testing.T) {
	r := setupItemTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]any{"sku": "HTTP-DUP", "title": "Dup"}
	if w := testutil.DoRequest(r, "POST", "/api/v1/items", body, token); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/items", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"] != float64(10003) {
		t.Errorf("Expected code 10003, got %v", resp["code"])
	}
}

func TestItemNotFound(t *testing.T) {
	r := setupItemTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "GET", "/api/v1/items/nope", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInventoryAdjustOverHTTP(t *testing.T) {
	r := setupItemTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/items", map[string]any{
		"sku":   "HTTP-INV",
		"title": "Stocked",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	id := data["id"].(string)

	w = testutil.DoRequest(r, "POST", "/api/v1/inventory/"+id+"/adjust", map[string]any{
		"quantity": 42,
		"notes":    "initial count",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	inv := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if inv["quantity_on_hand"] != float64(42) {
		t.Errorf("Expected on_hand 42, got %v", inv["quantity_on_hand"])
	}

	// 负增量从当前量扣减
	w = testutil.DoRequest(r, "POST", "/api/v1/inventory/"+id+"/adjust", map[string]any{
		"quantity": -10,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	inv = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if inv["quantity_on_hand"] != float64(32) {
		t.Errorf("Expected on_hand 32, got %v", inv["quantity_on_hand"])
	}

	// 扣穿库存是 409
	w = testutil.DoRequest(r, "POST", "/api/v1/inventory/"+id+"/adjust", map[string]any{
		"quantity": -100,
	}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"] != float64(10005) {
		t.Errorf("Expected code 10005, got %v", resp["code"])
	}
}

func TestCreateKitOverHTTP(t *testing.T) {
	r := setupItemTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/items", map[string]any{
		"sku": "HTTP-BEAD", "title": "Bead", "category": "component", "base_cost": 0.5,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	bead := testutil.ParseResponse(w)["data"].(map[string]interface{})

	w = testutil.DoRequest(r, "POST", "/api/v1/kits", map[string]any{
		"item": map[string]any{"sku": "HTTP-KIT", "title": "Kit"},
		"components": []map[string]any{
			{"component_item_id": bead["id"], "quantity_required": 4},
		},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	kit := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if kit["calculated_cost"] != float64(2) {
		t.Errorf("Expected calculated cost 2, got %v", kit["calculated_cost"])
	}

	kitID := kit["id"].(string)
	w = testutil.DoRequest(r, "GET", "/api/v1/items/"+kitID+"/bom", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
