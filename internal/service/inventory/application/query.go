// internal/service/inventory/application/query.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/service/inventory/domain"
)

// AvailabilityCache 是可用库存的短 TTL 读缓存端口。
// 订单域在接单前会同步调用可用性检查，这条路径要尽量不打到数据库。
type AvailabilityCache interface {
	GetAvailable(ctx context.Context, productID int64) (int, bool)
	SetAvailable(ctx context.Context, productID int64, available int)
}

// SetAvailabilityCache 注入可选的读缓存；不注入时每次都查台账
func (s *InventoryApplicationService) SetAvailabilityCache(cache AvailabilityCache) {
	s.availabilityCache = cache
}

// CheckAvailability 同步可用性检查。
// 契约是保守返回 false：台账或缓存任何一环不可用，都当作没有库存，
// 宁可拒单也不超卖。
func (s *InventoryApplicationService) CheckAvailability(ctx context.Context, productID int64, quantity int) bool {
	ctx, span := s.tracer.Start(ctx, "inventory.CheckAvailability")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	if quantity <= 0 {
		return false
	}

	if s.availabilityCache != nil {
		if available, ok := s.availabilityCache.GetAvailable(ctx, productID); ok {
			span.AddEvent("availability served from cache")
			return available >= quantity
		}
	}

	record, err := s.ledger.FindByProductID(ctx, productID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Int64("product_id", productID).
			Msg("Availability check failed, answering conservative false")
		return false
	}

	if s.availabilityCache != nil {
		s.availabilityCache.SetAvailable(ctx, productID, record.QuantityAvailable)
	}
	return record.HasSufficientStock(quantity)
}

// FindProductsNeedingReorder 运维报表：列出触发补货规则的商品
func (s *InventoryApplicationService) FindProductsNeedingReorder(ctx context.Context) ([]*domain.InventoryRecord, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.FindProductsNeedingReorder")
	defer span.End()

	records, err := s.ledger.FindNeedingReorder(ctx)
	if err != nil {
		return nil, err
	}

	// 台账查询用默认公式粗筛，这里再过一遍可配置规则
	var result []*domain.InventoryRecord
	for _, record := range records {
		needs, err := s.reorder.Evaluate(record)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Int64("product_id", record.ProductID).
				Msg("Reorder rule evaluation failed in report")
			continue
		}
		if needs {
			result = append(result, record)
		}
	}
	return result, nil
}
