// internal/service/inventory/domain/reservation.go
package domain

import "time"

// Reservation 是幂等见证：一条记录存在，当且仅当该订单成功在台账上
// 预留过库存且尚未释放/确认。释放和确认必须以这里记录的数量为准，
// 而不是事件里带的数量 —— 事件可能重复或被篡改。
//
// 它和台账变更在同一个数据库事务里写入/删除，进程重启后幂等性依然成立。
type Reservation struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
}
