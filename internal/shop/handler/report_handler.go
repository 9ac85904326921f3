package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/victorydiv/etsyapp/internal/shop/service"
	"github.com/xuri/excelize/v2"
)

// ReportHandler Excel 报表下载
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) writeXLSX(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		respondError(c, err)
	}
}

// Inventory GET /reports/inventory
func (h *ReportHandler) Inventory(c *gin.Context) {
	f, filename, err := h.svc.InventoryReport()
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeXLSX(c, f, filename)
}

// Reorder GET /reports/reorder
func (h *ReportHandler) Reorder(c *gin.Context) {
	f, filename, err := h.svc.ReorderReport()
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeXLSX(c, f, filename)
}

// Transactions GET /reports/transactions/:item_id?limit=
func (h *ReportHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	f, filename, err := h.svc.TransactionReport(c.Param("item_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeXLSX(c, f, filename)
}

// Inbound GET /reports/inbound-orders?status=
func (h *ReportHandler) Inbound(c *gin.Context) {
	f, filename, err := h.svc.InboundReport(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeXLSX(c, f, filename)
}

// Sales GET /reports/orders?status=
func (h *ReportHandler) Sales(c *gin.Context) {
	f, filename, err := h.svc.SalesReport(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeXLSX(c, f, filename)
}
