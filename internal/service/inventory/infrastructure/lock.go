// internal/service/inventory/infrastructure/lock.go
package infrastructure

import (
	"context"
	"strconv"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"stocknexus/internal/pkg/zookeeper"
)

// LocalProductLocker 是进程内的商品粒度互斥锁。
// 单实例部署时配合数据库行锁已经足够；锁对象按 productId 懒创建，
// 不回收 —— 商品数量有限，常驻开销可以接受。
type LocalProductLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocalProductLocker() *LocalProductLocker {
	return &LocalProductLocker{locks: make(map[int64]*sync.Mutex)}
}

func (l *LocalProductLocker) Lock(ctx context.Context, productID int64) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[productID] = m
	}
	l.mu.Unlock()

	// sync.Mutex 不支持带取消的等待；这里用一个小通道桥接，
	// 让调用方的 ctx 超时依然有效
	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return m.Unlock, nil
	case <-ctx.Done():
		// 锁最终还是会被后台 goroutine 拿到，拿到后立即归还
		go func() {
			<-acquired
			m.Unlock()
		}()
		return nil, ctx.Err()
	}
}

// ZkProductLocker 用 ZooKeeper 临时顺序节点实现跨实例的商品互斥。
// 多个 inventory-service 实例并行消费不同分区时，同一商品的变更
// 仍然会被这里串行化（数据库行锁之上的又一层保险）。
type ZkProductLocker struct {
	conn *zookeeper.Conn
}

func NewZkProductLocker(conn *zookeeper.Conn) *ZkProductLocker {
	return &ZkProductLocker{conn: conn}
}

func (l *ZkProductLocker) Lock(ctx context.Context, productID int64) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(l.conn, "product-"+strconv.FormatInt(productID, 10))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create zk lock for product %d", productID)
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to acquire zk lock for product %d", productID)
	}
	return func() { _ = lock.Unlock() }, nil
}
