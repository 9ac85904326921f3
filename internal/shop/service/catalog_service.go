package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"gorm.io/gorm"
)

// CatalogService 商品主数据管理。
// 商品与库存记录一对一，创建商品时在同一事务内建出零库存记录。
type CatalogService struct {
	itemRepo *repository.ItemRepository
	invRepo  *repository.InventoryRepository
	db       *gorm.DB
}

func NewCatalogService(itemRepo *repository.ItemRepository, invRepo *repository.InventoryRepository, db *gorm.DB) *CatalogService {
	return &CatalogService{itemRepo: itemRepo, invRepo: invRepo, db: db}
}

type CreateItemRequest struct {
	SKU                  string  `json:"sku" binding:"required"`
	Title                string  `json:"title" binding:"required"`
	MarketplaceListingID string  `json:"marketplace_listing_id"`
	Category             string  `json:"category"`
	BaseCost             float64 `json:"base_cost"`
	SellPrice            float64 `json:"sell_price"`
	ReorderPoint         float64 `json:"reorder_point"`
	ReorderQuantity      float64 `json:"reorder_quantity"`
	TrackInventory       *bool   `json:"track_inventory"`
	SupplierName         string  `json:"supplier_name"`
	SupplierURL          string  `json:"supplier_url"`
	StorageLocation      string  `json:"storage_location"`
}

var validCategories = map[string]bool{
	entity.CategoryRawMaterial:  true,
	entity.CategoryComponent:    true,
	entity.CategoryFinishedGood: true,
	entity.CategoryKit:          true,
}

func (s *CatalogService) Create(req CreateItemRequest) (*entity.Item, error) {
	if req.SKU == "" {
		return nil, &ValidationError{Field: "sku", Message: "不能为空"}
	}
	category := req.Category
	if category == "" {
		category = entity.CategoryFinishedGood
	}
	if !validCategories[category] {
		return nil, &ValidationError{Field: "category", Message: "非法类目", Value: req.Category}
	}
	if req.BaseCost < 0 {
		return nil, &ValidationError{Field: "base_cost", Message: "不能为负", Value: req.BaseCost}
	}
	if req.SellPrice < 0 {
		return nil, &ValidationError{Field: "sell_price", Message: "不能为负", Value: req.SellPrice}
	}

	exists, err := s.itemRepo.ExistsBySKU(req.SKU)
	if err != nil {
		return nil, fmt.Errorf("查询SKU失败: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, req.SKU)
	}

	track := true
	if req.TrackInventory != nil {
		track = *req.TrackInventory
	}

	item := &entity.Item{
		ID:                   uuid.New().String(),
		SKU:                  req.SKU,
		MarketplaceListingID: req.MarketplaceListingID,
		Title:                req.Title,
		Category:             category,
		IsKit:                category == entity.CategoryKit,
		BaseCost:             req.BaseCost,
		SellPrice:            req.SellPrice,
		ReorderPoint:         req.ReorderPoint,
		ReorderQuantity:      req.ReorderQuantity,
		TrackInventory:       track,
		SupplierName:         req.SupplierName,
		SupplierURL:          req.SupplierURL,
		StorageLocation:      req.StorageLocation,
		IsActive:             true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.itemRepo.WithTx(tx).Create(item); err != nil {
			return fmt.Errorf("创建商品失败: %w", err)
		}
		inv := &entity.Inventory{
			ID:          uuid.New().String(),
			ItemID:      item.ID,
			LastUpdated: time.Now(),
		}
		inv.RecalculateAvailable()
		if err := s.invRepo.WithTx(tx).Create(inv); err != nil {
			return fmt.Errorf("创建库存记录失败: %w", err)
		}
		item.Inventory = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

type UpdateItemRequest struct {
	Title                *string  `json:"title"`
	MarketplaceListingID *string  `json:"marketplace_listing_id"`
	Category             *string  `json:"category"`
	BaseCost             *float64 `json:"base_cost"`
	SellPrice            *float64 `json:"sell_price"`
	ReorderPoint         *float64 `json:"reorder_point"`
	ReorderQuantity      *float64 `json:"reorder_quantity"`
	TrackInventory       *bool    `json:"track_inventory"`
	SupplierName         *string  `json:"supplier_name"`
	SupplierURL          *string  `json:"supplier_url"`
	StorageLocation      *string  `json:"storage_location"`
	IsActive             *bool    `json:"is_active"`
}

// Update 更新商品主数据。SKU 为业务标识，创建后不可变更。
func (s *CatalogService) Update(id string, req UpdateItemRequest) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 商品 %s", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, &ValidationError{Field: "title", Message: "不能为空"}
		}
		item.Title = *req.Title
	}
	if req.MarketplaceListingID != nil {
		item.MarketplaceListingID = *req.MarketplaceListingID
	}
	if req.Category != nil {
		if !validCategories[*req.Category] {
			return nil, &ValidationError{Field: "category", Message: "非法类目", Value: *req.Category}
		}
		item.Category = *req.Category
		item.IsKit = *req.Category == entity.CategoryKit
	}
	if req.BaseCost != nil {
		if *req.BaseCost < 0 {
			return nil, &ValidationError{Field: "base_cost", Message: "不能为负", Value: *req.BaseCost}
		}
		item.BaseCost = *req.BaseCost
	}
	if req.SellPrice != nil {
		if *req.SellPrice < 0 {
			return nil, &ValidationError{Field: "sell_price", Message: "不能为负", Value: *req.SellPrice}
		}
		item.SellPrice = *req.SellPrice
	}
	if req.ReorderPoint != nil {
		item.ReorderPoint = *req.ReorderPoint
	}
	if req.ReorderQuantity != nil {
		item.ReorderQuantity = *req.ReorderQuantity
	}
	if req.TrackInventory != nil {
		item.TrackInventory = *req.TrackInventory
	}
	if req.SupplierName != nil {
		item.SupplierName = *req.SupplierName
	}
	if req.SupplierURL != nil {
		item.SupplierURL = *req.SupplierURL
	}
	if req.StorageLocation != nil {
		item.StorageLocation = *req.StorageLocation
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.itemRepo.Update(item); err != nil {
		return nil, fmt.Errorf("更新商品失败: %w", err)
	}
	return item, nil
}

func (s *CatalogService) Get(id string) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 商品 %s", ErrNotFound, id)
		}
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) GetBySKU(sku string) (*entity.Item, error) {
	item, err := s.itemRepo.GetBySKU(sku)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: SKU %s", ErrNotFound, sku)
		}
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) List(params repository.ItemListParams) ([]entity.Item, error) {
	return s.itemRepo.List(params)
}

func (s *CatalogService) ListWithInventory(params repository.ItemListParams) ([]entity.Item, error) {
	return s.itemRepo.ListWithInventory(params)
}

// TouchLastSynced 记录该商品最近一次平台同步时间
func (s *CatalogService) TouchLastSynced(id string) error {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: 商品 %s", ErrNotFound, id)
		}
		return err
	}
	now := time.Now()
	item.LastSynced = &now
	return s.itemRepo.Update(item)
}

// Deactivate 软下架，保留全部历史流水
func (s *CatalogService) Deactivate(id string) error {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: 商品 %s", ErrNotFound, id)
		}
		return err
	}
	item.IsActive = false
	return s.itemRepo.Update(item)
}
