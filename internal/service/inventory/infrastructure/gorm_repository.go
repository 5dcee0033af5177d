// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stocknexus/internal/service/inventory/domain"
)

// MySQL 错误码：1062 唯一键冲突，1213 死锁（InnoDB 选中回滚的一方）
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrDeadlock       = 1213
)

// GormTx 实现 domain.Tx
type GormTx struct {
	tx *gorm.DB
}

func (t *GormTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *GormTx) Rollback() error {
	return t.tx.Rollback().Error
}

// GormTxManager 实现 domain.TxManager
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) Begin(ctx context.Context) (domain.Tx, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, pkgerrors.Wrap(tx.Error, "failed to begin gorm transaction")
	}
	return &GormTx{tx: tx}, nil
}

// session 返回本次操作应使用的 *gorm.DB：
// 传了事务就用事务，nil 则直接用连接（非事务读）。
func session(tx domain.Tx, fallback *gorm.DB) *gorm.DB {
	if tx == nil {
		return fallback
	}
	return tx.(*GormTx).tx
}

// GormLedgerRepository 是 domain.LedgerRepository 的 GORM 实现
type GormLedgerRepository struct {
	db *gorm.DB
}

func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) FindByProductID(ctx context.Context, productID int64) (*domain.InventoryRecord, error) {
	var model InventoryModel
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, pkgerrors.Wrapf(err, "failed to load inventory for product %d", productID)
	}
	return toDomainRecord(&model), nil
}

// FindByProductIDForUpdate 行级排他锁读取。锁在事务提交/回滚时释放，
// 同一商品行的并发写者在这里排队。
func (r *GormLedgerRepository) FindByProductIDForUpdate(ctx context.Context, tx domain.Tx, productID int64) (*domain.InventoryRecord, error) {
	var model InventoryModel
	err := session(tx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		if isMySQLError(err, mysqlErrDeadlock) {
			return nil, domain.ErrVersionConflict
		}
		return nil, pkgerrors.Wrapf(err, "failed to lock inventory row for product %d", productID)
	}
	return toDomainRecord(&model), nil
}

// Save 带乐观锁条件的写回。行锁已经串行化了写者，version 条件是
// 锁作用域出 bug 时的纵深防御；没命中行就当作版本冲突让上层重试。
func (r *GormLedgerRepository) Save(ctx context.Context, tx domain.Tx, record *domain.InventoryRecord) error {
	result := session(tx, r.db).WithContext(ctx).
		Model(&InventoryModel{}).
		Where("product_id = ? AND version = ?", record.ProductID, record.Version).
		Updates(map[string]interface{}{
			"quantity_available": record.QuantityAvailable,
			"quantity_reserved":  record.QuantityReserved,
			"version":            record.Version + 1,
		})
	if result.Error != nil {
		if isMySQLError(result.Error, mysqlErrDeadlock) {
			return domain.ErrVersionConflict
		}
		return pkgerrors.Wrapf(result.Error, "failed to save inventory for product %d", record.ProductID)
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	record.Version++
	return nil
}

func (r *GormLedgerRepository) Create(ctx context.Context, record *domain.InventoryRecord) error {
	model := toInventoryModel(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return pkgerrors.Wrapf(err, "failed to create inventory for product %d", record.ProductID)
	}
	return nil
}

func (r *GormLedgerRepository) FindNeedingReorder(ctx context.Context) ([]*domain.InventoryRecord, error) {
	var models []*InventoryModel
	err := r.db.WithContext(ctx).
		Where("quantity_available + quantity_reserved <= reorder_level").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query products needing reorder")
	}
	records := make([]*domain.InventoryRecord, len(models))
	for i, m := range models {
		records[i] = toDomainRecord(m)
	}
	return records, nil
}

// GormReservationRepository 是 domain.ReservationRepository 的 GORM 实现
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) FindByOrderID(ctx context.Context, tx domain.Tx, orderID int64) (*domain.Reservation, error) {
	var model ReservationModel
	err := session(tx, r.db).WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to load reservation for order %d", orderID)
	}
	return toDomainReservation(&model), nil
}

func (r *GormReservationRepository) Create(ctx context.Context, tx domain.Tx, reservation *domain.Reservation) error {
	model := toReservationModel(reservation)
	if err := session(tx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		if isMySQLError(err, mysqlErrDuplicateEntry) {
			return domain.ErrDuplicateReservation
		}
		return pkgerrors.Wrapf(err, "failed to create reservation for order %d", reservation.OrderID)
	}
	return nil
}

func (r *GormReservationRepository) Delete(ctx context.Context, tx domain.Tx, orderID int64) error {
	err := session(tx, r.db).WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&ReservationModel{}).Error
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to delete reservation for order %d", orderID)
	}
	return nil
}

func isMySQLError(err error, number uint16) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == number
}
