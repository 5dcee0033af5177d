// internal/service/inventory/interfaces/dispatcher.go
package interfaces

import (
	"context"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/service/inventory/application"
	"stocknexus/internal/service/inventory/domain"
)

// EventDispatcher 把三类订单事件路由到应用服务对应的用例
type EventDispatcher struct {
	app *application.InventoryApplicationService
}

func NewEventDispatcher(app *application.InventoryApplicationService) *EventDispatcher {
	return &EventDispatcher{app: app}
}

// HandleOrderCreated 为新订单预留库存
func (d *EventDispatcher) HandleOrderCreated(ctx context.Context, event *domain.OrderEvent) error {
	logger.Ctx(ctx).Info().
		Int64("order_id", event.OrderID).
		Int64("product_id", event.ProductID).
		Int("quantity", event.Quantity).
		Msg("📦 Processing order created event")
	return d.app.ReserveInventory(ctx, event.ProductID, event.Quantity, event.OrderID)
}

// HandleOrderUpdated 根据状态迁移决定预留的去向（确认扣减 / 释放 / 不动）
func (d *EventDispatcher) HandleOrderUpdated(ctx context.Context, event *domain.OrderEvent) error {
	logger.Ctx(ctx).Info().
		Int64("order_id", event.OrderID).
		Str("previous_status", string(event.PreviousStatus)).
		Str("status", string(event.Status)).
		Msg("🔄 Processing order status change")
	return d.app.HandleOrderStatusChange(ctx, event.OrderID, event.PreviousStatus, event.Status)
}

// HandleOrderCancelled 释放订单预留的库存
func (d *EventDispatcher) HandleOrderCancelled(ctx context.Context, event *domain.OrderEvent) error {
	logger.Ctx(ctx).Info().
		Int64("order_id", event.OrderID).
		Msg("🗑️ Processing order cancelled event")
	return d.app.ReleaseReservedInventory(ctx, event.OrderID)
}
