// internal/service/inventory/domain/repository.go
package domain

import (
	"context"
	"errors"
)

// ErrDuplicateReservation 同一订单的预留记录已存在（唯一键冲突）。
// 这是重复投递的竞态路径信号，调用方应当作幂等成功处理。
var ErrDuplicateReservation = errors.New("reservation already exists for order")

// Tx 是一次数据库事务。台账变更和预留记录的写入必须共用同一个 Tx，
// 保证两者原子提交。
type Tx interface {
	Commit() error
	Rollback() error
}

// TxManager 开启事务
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// LedgerRepository 是库存台账的持久化端口。
type LedgerRepository interface {
	// FindByProductID 无锁读取，供查询类接口使用
	FindByProductID(ctx context.Context, productID int64) (*InventoryRecord, error)
	// FindByProductIDForUpdate 在事务里带行级排他锁读取（SELECT ... FOR UPDATE），
	// 不存在时返回 ErrProductNotFound
	FindByProductIDForUpdate(ctx context.Context, tx Tx, productID int64) (*InventoryRecord, error)
	// Save 带乐观锁条件写回：WHERE version = 读取时的 version。
	// 没有命中行时返回 ErrVersionConflict，提交时 version 递增。
	Save(ctx context.Context, tx Tx, record *InventoryRecord) error
	// Create 供运维/初始化工具建档
	Create(ctx context.Context, record *InventoryRecord) error
	// FindNeedingReorder 全表扫描补货建议（运维报表）
	FindNeedingReorder(ctx context.Context) ([]*InventoryRecord, error)
}

// ReservationRepository 是幂等见证（预留记录）的持久化端口。
type ReservationRepository interface {
	// FindByOrderID 查询订单的预留记录，没有则返回 (nil, nil)
	FindByOrderID(ctx context.Context, tx Tx, orderID int64) (*Reservation, error)
	// Create 写入预留记录；order_id 唯一键冲突时返回 ErrDuplicateReservation
	Create(ctx context.Context, tx Tx, reservation *Reservation) error
	// Delete 删除预留记录（释放/确认之后）
	Delete(ctx context.Context, tx Tx, orderID int64) error
}

// ProductLocker 是进程外/进程内的商品粒度互斥原语。
// 数据库行锁之外再加一层，防御锁作用域 bug（单机用内存锁，多实例用 ZooKeeper）。
type ProductLocker interface {
	// Lock 阻塞获取 productID 的互斥锁，返回释放函数
	Lock(ctx context.Context, productID int64) (func(), error)
}

// ReorderPolicy 是补货建议的可配置判定端口（默认实现等价于 NeedsReorder）。
type ReorderPolicy interface {
	Evaluate(record *InventoryRecord) (bool, error)
}

// AdvisoryPublisher 把补货/死信等运维建议推送给订阅方（告警通道）。
type AdvisoryPublisher interface {
	PublishReorderAdvisory(ctx context.Context, record *InventoryRecord)
}
