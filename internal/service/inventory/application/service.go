// internal/service/inventory/application/service.go
package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/service/inventory/domain"
)

// maxVersionRetries 乐观锁冲突在台账内部的重试上限，
// 耗尽后把 ErrVersionConflict 抛给消费管道按可重试失败处理
const maxVersionRetries = 3

// InventoryApplicationService 是库存预留引擎：
// 消费订单生命周期事件，把它们转换成台账上幂等的预留/释放/确认操作。
// 幂等性由预留记录（Reservation）保证，记录和台账变更在同一事务里提交。
type InventoryApplicationService struct {
	ledger       domain.LedgerRepository
	reservations domain.ReservationRepository
	txManager    domain.TxManager
	locker       domain.ProductLocker
	reorder      domain.ReorderPolicy
	advisories   domain.AdvisoryPublisher // 可选，nil 时只打日志
	tracer       trace.Tracer

	availabilityCache AvailabilityCache // 可选，见 SetAvailabilityCache
}

func NewInventoryApplicationService(
	ledger domain.LedgerRepository,
	reservations domain.ReservationRepository,
	txManager domain.TxManager,
	locker domain.ProductLocker,
	reorder domain.ReorderPolicy,
	advisories domain.AdvisoryPublisher,
	tracer trace.Tracer,
) *InventoryApplicationService {
	return &InventoryApplicationService{
		ledger:       ledger,
		reservations: reservations,
		txManager:    txManager,
		locker:       locker,
		reorder:      reorder,
		advisories:   advisories,
		tracer:       tracer,
	}
}

// ReserveInventory 为订单预留库存。
// 重复投递是常态：同一订单的第二次 reserve 必须是无副作用的成功。
func (s *InventoryApplicationService) ReserveInventory(ctx context.Context, productID int64, quantity int, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "inventory.ReserveInventory")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int64("order.id", orderID),
		attribute.Int("quantity", quantity),
	)

	// 快路径：预留记录已存在，说明这是重复投递，不碰台账
	if existing, err := s.reservations.FindByOrderID(ctx, nil, orderID); err == nil && existing != nil {
		logger.Ctx(ctx).Warn().
			Int64("order_id", orderID).
			Msg("Order already has inventory reserved, skipping duplicate reservation")
		span.AddEvent("duplicate reservation skipped")
		return nil
	}

	unlock, err := s.locker.Lock(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "failed to acquire product lock for %d", productID)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		err := s.reserveOnce(ctx, productID, quantity, orderID)
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxVersionRetries {
			logger.Ctx(ctx).Warn().
				Int64("product_id", productID).
				Int("attempt", attempt+1).
				Msg("Version conflict on reserve, retrying read-modify-write")
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reservation failed")
			return err
		}
		return nil
	}
}

// reserveOnce 是一次完整的“锁行-读-改-写-记录预留”事务
func (s *InventoryApplicationService) reserveOnce(ctx context.Context, productID int64, quantity int, orderID int64) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	record, err := s.ledger.FindByProductIDForUpdate(ctx, tx, productID)
	if err != nil {
		return err
	}

	// 事务内再查一遍幂等见证，覆盖快路径检查之后才到达的重复消息
	if existing, err := s.reservations.FindByOrderID(ctx, tx, orderID); err != nil {
		return errors.Wrap(err, "failed to check reservation idempotency")
	} else if existing != nil {
		logger.Ctx(ctx).Warn().
			Int64("order_id", orderID).
			Msg("Reservation appeared concurrently, treating as duplicate delivery")
		return nil
	}

	if err := record.Reserve(quantity); err != nil {
		return err
	}

	if err := s.ledger.Save(ctx, tx, record); err != nil {
		return err
	}

	if err := s.reservations.Create(ctx, tx, &domain.Reservation{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		if errors.Is(err, domain.ErrDuplicateReservation) {
			// 唯一键兜底：另一个投递刚好先提交了，同样按幂等成功处理
			logger.Ctx(ctx).Warn().Int64("order_id", orderID).
				Msg("Duplicate reservation detected by unique key, treating as success")
			return nil
		}
		return errors.Wrap(err, "failed to persist reservation")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit reservation")
	}

	logger.Ctx(ctx).Info().
		Int64("order_id", orderID).
		Int64("product_id", productID).
		Int("quantity", quantity).
		Msg("Inventory reserved")

	s.checkReorderLevel(ctx, record)
	return nil
}

// ReleaseReservedInventory 释放订单的预留库存（订单取消/失败）。
// 数量以预留记录为准，不信任事件载荷。
func (s *InventoryApplicationService) ReleaseReservedInventory(ctx context.Context, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "inventory.ReleaseReservedInventory")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	return s.settleReservation(ctx, orderID, func(record *domain.InventoryRecord, quantity int) error {
		return record.Release(quantity)
	}, "released")
}

// ConfirmReservedInventory 确认订单的预留库存（订单发货）
func (s *InventoryApplicationService) ConfirmReservedInventory(ctx context.Context, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "inventory.ConfirmReservedInventory")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	return s.settleReservation(ctx, orderID, func(record *domain.InventoryRecord, quantity int) error {
		return record.Confirm(quantity)
	}, "confirmed")
}

// settleReservation 是释放/确认的公共骨架：查预留记录 -> 锁行 -> 变更 -> 删记录。
// 没有预留记录时是幂等 no-op（重复投递或从未预留），记 Warn 不算失败。
func (s *InventoryApplicationService) settleReservation(
	ctx context.Context,
	orderID int64,
	mutate func(record *domain.InventoryRecord, quantity int) error,
	verb string,
) error {
	reservation, err := s.reservations.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up reservation")
	}
	if reservation == nil {
		logger.Ctx(ctx).Warn().
			Int64("order_id", orderID).
			Msgf("No reservation found for order, skipping %s", verb)
		return nil
	}

	unlock, err := s.locker.Lock(ctx, reservation.ProductID)
	if err != nil {
		return errors.Wrapf(err, "failed to acquire product lock for %d", reservation.ProductID)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		err := s.settleOnce(ctx, orderID, mutate, verb)
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxVersionRetries {
			logger.Ctx(ctx).Warn().
				Int64("order_id", orderID).
				Int("attempt", attempt+1).
				Msgf("Version conflict on %s, retrying read-modify-write", verb)
			continue
		}
		return err
	}
}

func (s *InventoryApplicationService) settleOnce(
	ctx context.Context,
	orderID int64,
	mutate func(record *domain.InventoryRecord, quantity int) error,
	verb string,
) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	// 事务内重读预留记录：并发的另一次投递可能已经结算掉了
	reservation, err := s.reservations.FindByOrderID(ctx, tx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to re-check reservation")
	}
	if reservation == nil {
		logger.Ctx(ctx).Warn().
			Int64("order_id", orderID).
			Msgf("Reservation settled concurrently, skipping %s", verb)
		return nil
	}

	record, err := s.ledger.FindByProductIDForUpdate(ctx, tx, reservation.ProductID)
	if err != nil {
		return err
	}

	if err := mutate(record, reservation.Quantity); err != nil {
		return err
	}
	if err := s.ledger.Save(ctx, tx, record); err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, tx, orderID); err != nil {
		return errors.Wrap(err, "failed to delete reservation")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit %s", verb)
	}

	logger.Ctx(ctx).Info().
		Int64("order_id", orderID).
		Int64("product_id", reservation.ProductID).
		Int("quantity", reservation.Quantity).
		Msgf("Reservation %s", verb)
	return nil
}

// HandleOrderStatusChange 把订单状态变更映射为库存动作
func (s *InventoryApplicationService) HandleOrderStatusChange(ctx context.Context, orderID int64, previous, next domain.OrderStatus) error {
	ctx, span := s.tracer.Start(ctx, "inventory.HandleOrderStatusChange")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("status.previous", string(previous)),
		attribute.String("status.new", string(next)),
	)

	switch domain.ActionForTransition(previous, next) {
	case domain.ActionConfirm:
		return s.ConfirmReservedInventory(ctx, orderID)
	case domain.ActionRelease:
		return s.ReleaseReservedInventory(ctx, orderID)
	default:
		logger.Ctx(ctx).Debug().
			Int64("order_id", orderID).
			Str("previous", string(previous)).
			Str("new", string(next)).
			Msg("Status transition has no inventory action")
		return nil
	}
}

// checkReorderLevel 预留成功后评估补货规则，只发建议信号，失败也不影响主流程
func (s *InventoryApplicationService) checkReorderLevel(ctx context.Context, record *domain.InventoryRecord) {
	needs, err := s.reorder.Evaluate(record)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Int64("product_id", record.ProductID).
			Msg("Reorder rule evaluation failed")
		return
	}
	if !needs {
		return
	}
	logger.Ctx(ctx).Warn().
		Int64("product_id", record.ProductID).
		Int("available", record.QuantityAvailable).
		Int("reserved", record.QuantityReserved).
		Int("reorder_level", record.ReorderLevel).
		Msg("Product needs reordering")
	if s.advisories != nil {
		s.advisories.PublishReorderAdvisory(ctx, record)
	}
}
