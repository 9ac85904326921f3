package service

import (
	"fmt"
	"time"

	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 导出 Excel 报表
type ReportService struct {
	itemRepo    *repository.ItemRepository
	invRepo     *repository.InventoryRepository
	inboundRepo *repository.InboundRepository
	salesRepo   *repository.SalesRepository
}

func NewReportService(itemRepo *repository.ItemRepository, invRepo *repository.InventoryRepository, inboundRepo *repository.InboundRepository, salesRepo *repository.SalesRepository) *ReportService {
	return &ReportService{itemRepo: itemRepo, invRepo: invRepo, inboundRepo: inboundRepo, salesRepo: salesRepo}
}

var inventoryReportHeaders = []string{
	"SKU", "Title", "Category", "On Hand", "Reserved", "Available",
	"Reorder Point", "Unit Cost", "Sell Price", "Location",
}

func newReportFile(sheet string, headers []string) (*excelize.File, int) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}
	return f, boldStyle
}

// InventoryReport 全量库存报表
func (s *ReportService) InventoryReport() (*excelize.File, string, error) {
	items, err := s.itemRepo.ListWithInventory(repository.ItemListParams{ActiveOnly: true})
	if err != nil {
		return nil, "", fmt.Errorf("查询库存失败: %w", err)
	}

	sheet := "Inventory"
	f, _ := newReportFile(sheet, inventoryReportHeaders)

	for rowIdx, item := range items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.SKU)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Title)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Category)
		if item.Inventory != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Inventory.QuantityOnHand)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Inventory.QuantityReserved)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Inventory.QuantityAvailable)
		}
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.ReorderPoint)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.UnitCost())
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.SellPrice)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), item.StorageLocation)
	}

	colWidths := []float64{16, 32, 14, 10, 10, 10, 12, 10, 10, 16}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

var reorderReportHeaders = []string{
	"SKU", "Title", "Available", "Reorder Point", "Reorder Qty", "Supplier", "Supplier URL",
}

// ReorderReport 补货清单报表
func (s *ReportService) ReorderReport() (*excelize.File, string, error) {
	items, err := s.invRepo.ListBelowReorderPoint()
	if err != nil {
		return nil, "", fmt.Errorf("查询补货清单失败: %w", err)
	}

	sheet := "Reorder"
	f, _ := newReportFile(sheet, reorderReportHeaders)

	for rowIdx, item := range items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.SKU)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Title)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.QuantityAvailable)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.ReorderPoint)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.ReorderQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.SupplierName)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.SupplierURL)
	}

	colWidths := []float64{16, 32, 10, 12, 12, 20, 40}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("reorder_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

var transactionReportHeaders = []string{
	"Date", "Type", "Quantity", "Reference Type", "Reference ID", "Notes", "Performed By",
}

// TransactionReport 单品库存流水报表，最近 limit 条（<=0 取默认值）
func (s *ReportService) TransactionReport(itemID string, limit int) (*excelize.File, string, error) {
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: 商品 %s", ErrNotFound, itemID)
	}
	txs, err := s.invRepo.ListTransactions(itemID, limit)
	if err != nil {
		return nil, "", fmt.Errorf("查询流水失败: %w", err)
	}

	sheet := "Transactions"
	f, _ := newReportFile(sheet, transactionReportHeaders)

	for rowIdx, tx := range txs {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), tx.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), tx.TransactionType)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), tx.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), tx.ReferenceType)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), tx.ReferenceID)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), tx.Notes)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), tx.PerformedBy)
	}

	colWidths := []float64{20, 14, 10, 14, 38, 30, 16}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("transactions_%s_%s.xlsx", item.SKU, time.Now().Format("20060102"))
	return f, filename, nil
}

var inboundReportHeaders = []string{
	"PO Number", "Supplier", "Status", "Order Date", "Expected", "Subtotal", "Shipping", "Tax", "Total",
}

// InboundReport 采购单一览报表，status 为空导出全部
func (s *ReportService) InboundReport(status string) (*excelize.File, string, error) {
	orders, err := s.inboundRepo.List(status)
	if err != nil {
		return nil, "", fmt.Errorf("查询采购单失败: %w", err)
	}

	sheet := "Inbound Orders"
	f, _ := newReportFile(sheet, inboundReportHeaders)

	var total float64
	for rowIdx, order := range orders {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), order.PONumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), order.SupplierName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), order.Status)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), order.OrderDate.Format("2006-01-02"))
		if order.ExpectedDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), order.ExpectedDate.Format("2006-01-02"))
		}
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), order.Subtotal)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), order.ShippingCost)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), order.Tax)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), order.TotalCost)
		total += order.TotalCost
	}

	summaryRow := len(orders) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("I%d", summaryRow), total)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("I%d", summaryRow), summaryStyle)

	colWidths := []float64{12, 20, 12, 12, 12, 10, 10, 10, 10}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("inbound_orders_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

var salesReportHeaders = []string{
	"Order ID", "Buyer", "Status", "Order Date", "Total", "Tracking", "Carrier",
}

// SalesReport 销售订单一览报表，status 为空导出全部
func (s *ReportService) SalesReport(status string) (*excelize.File, string, error) {
	orders, err := s.salesRepo.List(status)
	if err != nil {
		return nil, "", fmt.Errorf("查询订单失败: %w", err)
	}

	sheet := "Orders"
	f, _ := newReportFile(sheet, salesReportHeaders)

	for rowIdx, order := range orders {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), order.ExternalOrderID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), order.BuyerName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), order.Status)
		if order.OrderDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), order.OrderDate.Format("2006-01-02"))
		}
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), order.TotalAmount)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), order.TrackingNumber)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), order.Carrier)
	}

	colWidths := []float64{20, 20, 12, 12, 10, 20, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}
