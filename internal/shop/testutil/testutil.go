package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/victorydiv/etsyapp/internal/middleware"
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "stockroom-test-jwt-secret"

// SetupTestDB 打开进程内 sqlite 并建表，每个测试独立一库
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 命名共享内存库，连接池内的多个连接落在同一个库上
	dsn := fmt.Sprintf("file:test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

// TestLogger 测试用静默日志
func TestLogger() *zap.Logger {
	return zap.NewNop()
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"iss":   "stockroom",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test operator
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Operator", "operator@test.com")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedItem 建一个商品与对应的零库存记录
func SeedItem(t *testing.T, db *gorm.DB, sku, title, category string) *entity.Item {
	t.Helper()
	item := &entity.Item{
		ID:             uuid.New().String(),
		SKU:            sku,
		Title:          title,
		Category:       category,
		IsKit:          category == entity.CategoryKit,
		TrackInventory: true,
		IsActive:       true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	inv := &entity.Inventory{
		ID:          uuid.New().String(),
		ItemID:      item.ID,
		LastUpdated: time.Now(),
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("Failed to seed inventory: %v", err)
	}
	item.Inventory = inv
	return item
}

// SeedStock 直接灌入期初库存（带一条调整流水，保持台账守恒）
func SeedStock(t *testing.T, db *gorm.DB, itemID string, quantity float64) {
	t.Helper()
	var inv entity.Inventory
	if err := db.Where("item_id = ?", itemID).First(&inv).Error; err != nil {
		t.Fatalf("Failed to load inventory: %v", err)
	}
	inv.QuantityOnHand += quantity
	inv.RecalculateAvailable()
	inv.LastUpdated = time.Now()
	if err := db.Save(&inv).Error; err != nil {
		t.Fatalf("Failed to seed stock: %v", err)
	}
	tx := &entity.InventoryTransaction{
		ID:              uuid.New().String(),
		ItemID:          itemID,
		TransactionType: entity.TxTypeAdjustment,
		Quantity:        quantity,
		ReferenceType:   entity.RefTypeAdjustment,
		Notes:           "seed",
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("Failed to seed transaction: %v", err)
	}
}

// SeedBOMLine 给套件加一条 BOM 行
func SeedBOMLine(t *testing.T, db *gorm.DB, parentID, componentID string, quantity float64) {
	t.Helper()
	line := &entity.BOMLine{
		ID:               uuid.New().String(),
		ParentItemID:     parentID,
		ComponentItemID:  componentID,
		QuantityRequired: quantity,
	}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("Failed to seed BOM line: %v", err)
	}
}
