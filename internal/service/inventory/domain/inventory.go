// internal/service/inventory/domain/inventory.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProductNotFound 事件引用了台账里不存在的商品，属于坏数据，不应重试
	ErrProductNotFound = errors.New("product not found in inventory ledger")
	// ErrInsufficientStock 可用库存不足，属于业务失败；库存可能被释放出来，允许按策略重试
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState 释放/确认的数量超过了已预留量，说明逻辑或数据出了问题
	ErrInvalidState = errors.New("invalid reservation state")
	// ErrVersionConflict 乐观锁版本冲突，台账内部重试耗尽后向上抛出
	ErrVersionConflict = errors.New("inventory version conflict")
)

// InventoryRecord 是台账里一个商品的库存行。
// 不变式: QuantityAvailable >= 0 且 QuantityReserved >= 0；
// 所有变更必须在持有该商品行锁的前提下进行，提交时 Version 递增。
type InventoryRecord struct {
	ProductID         int64
	ProductName       string
	QuantityAvailable int
	QuantityReserved  int
	ReorderLevel      int
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasSufficientStock 判断可用库存是否覆盖本次请求
func (r *InventoryRecord) HasSufficientStock(quantity int) bool {
	return r.QuantityAvailable >= quantity
}

// Reserve 预留库存: available -> reserved
func (r *InventoryRecord) Reserve(quantity int) error {
	if !r.HasSufficientStock(quantity) {
		return fmt.Errorf("%w: product %d available %d, requested %d",
			ErrInsufficientStock, r.ProductID, r.QuantityAvailable, quantity)
	}
	r.QuantityAvailable -= quantity
	r.QuantityReserved += quantity
	return nil
}

// Release 释放预留: reserved -> available（订单取消/失败）
func (r *InventoryRecord) Release(quantity int) error {
	if r.QuantityReserved < quantity {
		return fmt.Errorf("%w: cannot release %d units, only %d reserved",
			ErrInvalidState, quantity, r.QuantityReserved)
	}
	r.QuantityReserved -= quantity
	r.QuantityAvailable += quantity
	return nil
}

// Confirm 确认预留（订单发货）：货物永久离开库存，available 不回补
func (r *InventoryRecord) Confirm(quantity int) error {
	if r.QuantityReserved < quantity {
		return fmt.Errorf("%w: cannot confirm %d units, only %d reserved",
			ErrInvalidState, quantity, r.QuantityReserved)
	}
	r.QuantityReserved -= quantity
	return nil
}

// NeedsReorder 补货建议判断，只产生告警信号，从不阻塞任何变更
func (r *InventoryRecord) NeedsReorder() bool {
	return r.QuantityAvailable+r.QuantityReserved <= r.ReorderLevel
}
