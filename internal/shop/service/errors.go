package service

import (
	"errors"
	"fmt"
	"strings"
)

// 业务错误类型，handler 层据此映射 HTTP 状态码
var (
	ErrNotFound     = errors.New("记录不存在")
	ErrDuplicateSKU = errors.New("SKU 已存在")
	ErrInvalidState = errors.New("当前状态不允许该操作")
)

// ValidationError 输入校验失败
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Message)
}

// ShortLine 缺料明细行
type ShortLine struct {
	ItemID    string  `json:"item_id"`
	SKU       string  `json:"sku"`
	Title     string  `json:"title"`
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
	Short     float64 `json:"short"`
}

// InsufficientInventoryError 库存不足，列出每一条缺口
type InsufficientInventoryError struct {
	Lines []ShortLine `json:"lines"`
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s 需要 %g 可用 %g", l.SKU, l.Required, l.Available))
	}
	return "库存不足: " + strings.Join(parts, "; ")
}
